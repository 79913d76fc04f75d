package lot

import "time"

// Lot は駐車場エンティティを表す
type Lot struct {
	ID        string
	Name      string
	Location  string
	Address   string
	Capacity  int
	Reserved  int // 表示用の参考値。空き判定の真実はReservation/Sessionの重複クエリ
	Tariff    float64
	DayTariff float64
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLot は新しい駐車場を作成する
func NewLot(name, location, address string, capacity int, tariff, dayTariff, latitude, longitude float64) *Lot {
	now := time.Now()
	return &Lot{
		Name:      name,
		Location:  location,
		Address:   address,
		Capacity:  capacity,
		Reserved:  0,
		Tariff:    tariff,
		DayTariff: dayTariff,
		Latitude:  latitude,
		Longitude: longitude,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate は駐車場の検証を行う
func (l *Lot) Validate() error {
	if l.Name == "" {
		return ErrNameRequired
	}
	if l.Address == "" {
		return ErrAddressRequired
	}
	if l.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if l.Tariff < 0 || l.DayTariff < 0 {
		return ErrInvalidTariff
	}
	return nil
}

// BreakEvenHours は時間課金が日額を超える境界（時間）を返す
// 日額キャップ判定はこの比率を使う。24時間固定ではない
func (l *Lot) BreakEvenHours() float64 {
	if l.Tariff <= 0 {
		return 0
	}
	return l.DayTariff / l.Tariff
}
