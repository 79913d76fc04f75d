package reservation

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// 予約期間の制約
const (
	// MaxDuration は予約の最大期間（365日）
	MaxDuration = 365 * 24 * time.Hour
	// MinDuration は予約の最小期間（1時間）
	MinDuration = time.Hour
)

// Reservation は予約エンティティを表す
type Reservation struct {
	ID         string
	StartAt    time.Time
	EndAt      time.Time
	Status     Status
	TotalPrice float64
	UserID     string
	LotID      string
	VehicleID  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewReservation は新しい予約をPending状態で作成する
func NewReservation(lotID, vehicleID, userID string, startAt, endAt time.Time, totalPrice float64) *Reservation {
	now := time.Now()
	return &Reservation{
		StartAt:    startAt,
		EndAt:      endAt,
		Status:     StatusPending,
		TotalPrice: totalPrice,
		UserID:     userID,
		LotID:      lotID,
		VehicleID:  vehicleID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ValidateWindow は予約期間の検証を行う
// チェックの順序は固定で、最初に失敗した規則のエラーを返す
func ValidateWindow(startAt, endAt, now time.Time) error {
	if !endAt.After(startAt) {
		return ErrEndNotAfterStart
	}
	if startAt.Before(now) {
		return ErrStartInPast
	}
	if endAt.Sub(startAt) > MaxDuration {
		return ErrDurationTooLong
	}
	if endAt.Sub(startAt) < MinDuration {
		return ErrDurationTooShort
	}
	return nil
}

// PriceFor は予約料金を計算する
// 日割り（端数日は比例配分）× 日額タリフ
func PriceFor(startAt, endAt time.Time, dayTariff float64) float64 {
	days := endAt.Sub(startAt).Hours() / 24
	return days * dayTariff
}

// Overlaps は予約の区間 [StartAt, EndAt) が指定区間と交差するかを返す
func (r *Reservation) Overlaps(startAt, endAt time.Time) bool {
	return r.StartAt.Before(endAt) && r.EndAt.After(startAt)
}

// CountsAgainstCapacity はこの予約が空き判定の対象かを返す
// キャンセル済みの予約は容量計算から除外する
func (r *Reservation) CountsAgainstCapacity() bool {
	return r.Status != StatusCancelled
}

// Confirm は予約を確定する
func (r *Reservation) Confirm() error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusConfirmed
	r.UpdatedAt = time.Now()
	return nil
}

// Cancel は予約をキャンセルする
// キャンセル後は重複・容量計算の対象外となる
func (r *Reservation) Cancel() error {
	switch r.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrAlreadyCompleted
	}
	r.Status = StatusCancelled
	r.UpdatedAt = time.Now()
	return nil
}
