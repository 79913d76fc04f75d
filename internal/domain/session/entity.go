package session

import "time"

// PaymentStatus は駐車セッションの支払い状態を表す
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "Unpaid"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPending PaymentStatus = "Pending"
)

// Session は駐車セッションエンティティを表す
// EndAtがnilの間はオープン（入庫中）。(lot, plate) の組につきオープンは最大1件
type Session struct {
	ID string
	// LicensePlate は正規化済みナンバー
	LicensePlate  string
	LotID         string
	UserID        *string // 匿名入庫（ANPR等）を許すためnullable
	StartAt       time.Time
	EndAt         *time.Time
	PaymentStatus PaymentStatus
	Price         *float64
	PaymentID     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSession は新しいオープンセッションを作成する
func NewSession(lotID, licensePlate string, userID *string, startAt time.Time) *Session {
	return &Session{
		LicensePlate:  licensePlate,
		LotID:         lotID,
		UserID:        userID,
		StartAt:       startAt,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     startAt,
		UpdatedAt:     startAt,
	}
}

// IsOpen はセッションが入庫中かを返す
func (s *Session) IsOpen() bool {
	return s.EndAt == nil
}

// Billing は精算サマリーを表す
type Billing struct {
	DurationInMinutes int
	CalculatedCost    float64
}

// CalculateCost は時間課金と日額キャップを適用した料金を返す
// 時間単価での課金が日額を超える場合（hours > dayTariff/tariff）は日額に丸める
// 閾値は比率dayTariff/tariffであり、24時間固定と取り違えないこと
func CalculateCost(duration time.Duration, tariff, dayTariff float64) float64 {
	hours := duration.Hours()
	cost := hours * tariff
	if tariff > 0 && hours > dayTariff/tariff {
		cost = dayTariff
	}
	return cost
}

// Close はセッションを終了し、料金を確定して精算サマリーを返す
func (s *Session) Close(endAt time.Time, tariff, dayTariff float64) (Billing, error) {
	if !s.IsOpen() {
		return Billing{}, ErrSessionAlreadyClosed
	}
	duration := endAt.Sub(s.StartAt)
	cost := CalculateCost(duration, tariff, dayTariff)

	s.EndAt = &endAt
	s.Price = &cost
	s.UpdatedAt = endAt

	return Billing{
		DurationInMinutes: int(duration.Minutes()),
		CalculatedCost:    cost,
	}, nil
}
