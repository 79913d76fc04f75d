package vehicle

import (
	"strings"
	"time"
)

// Vehicle は車両エンティティを表す
type Vehicle struct {
	ID string
	// LicensePlate は登録時の表記のまま保持する（例: "AB-123-CD"）
	LicensePlate string
	// NormalizedPlate は照合・重複判定用の正規化済みナンバー（例: "AB123CD"）
	NormalizedPlate string
	Make            string
	Model           string
	Color           string
	Year            int
	UserID          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// plateSeparators はナンバープレート表記に現れる区切り文字
const plateSeparators = "-. "

// NormalizePlate はナンバープレートを正規化する
// 区切り文字を除去し大文字に揃える。"AB-123-CD" と "AB123CD" は同一車両として扱う
func NormalizePlate(plate string) string {
	var b strings.Builder
	b.Grow(len(plate))
	for _, r := range plate {
		if strings.ContainsRune(plateSeparators, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// NewVehicle は新しい車両を作成する
func NewVehicle(licensePlate, make, model, color string, year int, userID string) *Vehicle {
	now := time.Now()
	return &Vehicle{
		LicensePlate:    licensePlate,
		NormalizedPlate: NormalizePlate(licensePlate),
		Make:            make,
		Model:           model,
		Color:           color,
		Year:            year,
		UserID:          userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate は車両の検証を行う
func (v *Vehicle) Validate() error {
	if strings.TrimSpace(v.LicensePlate) == "" {
		return ErrPlateRequired
	}
	if v.UserID == "" {
		return ErrUserIDRequired
	}
	return nil
}
