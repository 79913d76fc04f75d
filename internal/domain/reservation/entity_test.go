package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		startAt     time.Time
		endAt       time.Time
		errExpected error
	}{
		{
			name:    "正常な予約期間",
			startAt: now.Add(time.Hour), endAt: now.Add(3 * time.Hour),
		},
		{
			name:    "終了が開始と同時刻",
			startAt: now.Add(time.Hour), endAt: now.Add(time.Hour),
			errExpected: ErrEndNotAfterStart,
		},
		{
			name:    "終了が開始より前",
			startAt: now.Add(3 * time.Hour), endAt: now.Add(time.Hour),
			errExpected: ErrEndNotAfterStart,
		},
		{
			name:    "開始が過去",
			startAt: now.Add(-time.Minute), endAt: now.Add(2 * time.Hour),
			errExpected: ErrStartInPast,
		},
		{
			name:    "400日は最大期間超過",
			startAt: now.Add(time.Hour), endAt: now.Add(time.Hour + 400*24*time.Hour),
			errExpected: ErrDurationTooLong,
		},
		{
			name:    "30分は最小期間未満",
			startAt: now.Add(time.Hour), endAt: now.Add(time.Hour + 30*time.Minute),
			errExpected: ErrDurationTooShort,
		},
		{
			name:    "ちょうど1時間は許可",
			startAt: now.Add(time.Hour), endAt: now.Add(2 * time.Hour),
		},
		{
			name:    "ちょうど365日は許可",
			startAt: now.Add(time.Hour), endAt: now.Add(time.Hour + 365*24*time.Hour),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWindow(tt.startAt, tt.endAt, now)
			if tt.errExpected != nil {
				assert.ErrorIs(t, err, tt.errExpected)
				return
			}
			require.NoError(t, err)
		})
	}
}

// 検証メッセージはAPI契約なので文字列まで固定する
func TestValidationMessages(t *testing.T) {
	assert.Contains(t, ErrEndNotAfterStart.Error(), "EndDate must be greater")
	assert.Contains(t, ErrStartInPast.Error(), "cannot be in the past")
	assert.Contains(t, ErrDurationTooLong.Error(), "365 days")
	assert.Contains(t, ErrDurationTooShort.Error(), "1 hour")
}

func TestPriceFor(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("2時間は日額の2/24", func(t *testing.T) {
		price := PriceFor(base, base.Add(2*time.Hour), 20)
		assert.InDelta(t, 2.0/24.0*20, price, 1e-9)
	})

	t.Run("丸1日は日額そのまま", func(t *testing.T) {
		price := PriceFor(base, base.Add(24*time.Hour), 20)
		assert.InDelta(t, 20, price, 1e-9)
	})

	t.Run("1.5日は比例配分", func(t *testing.T) {
		price := PriceFor(base, base.Add(36*time.Hour), 20)
		assert.InDelta(t, 30, price, 1e-9)
	})
}

func TestReservation_Overlaps(t *testing.T) {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	r := &Reservation{StartAt: base, EndAt: base.Add(2 * time.Hour)}

	tests := []struct {
		name    string
		startAt time.Time
		endAt   time.Time
		want    bool
	}{
		{"完全に内側", base.Add(30 * time.Minute), base.Add(time.Hour), true},
		{"前方で部分交差", base.Add(-time.Hour), base.Add(time.Hour), true},
		{"後方で部分交差", base.Add(time.Hour), base.Add(3 * time.Hour), true},
		{"既存を包含", base.Add(-time.Hour), base.Add(3 * time.Hour), true},
		{"終端で接するだけ", base.Add(2 * time.Hour), base.Add(3 * time.Hour), false},
		{"始端で接するだけ", base.Add(-time.Hour), base, false},
		{"完全に後ろ", base.Add(5 * time.Hour), base.Add(6 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Overlaps(tt.startAt, tt.endAt))
		})
	}
}

func TestReservation_Cancel(t *testing.T) {
	base := time.Now().Add(time.Hour)
	r := NewReservation("lot-1", "vehicle-1", "user-1", base, base.Add(2*time.Hour), 10)
	assert.Equal(t, StatusPending, r.Status)
	assert.True(t, r.CountsAgainstCapacity())

	require.NoError(t, r.Cancel())
	assert.Equal(t, StatusCancelled, r.Status)
	assert.False(t, r.CountsAgainstCapacity())

	// 二重キャンセルはエラー
	assert.ErrorIs(t, r.Cancel(), ErrAlreadyCancelled)
}

func TestReservation_Confirm(t *testing.T) {
	base := time.Now().Add(time.Hour)
	r := NewReservation("lot-1", "vehicle-1", "user-1", base, base.Add(2*time.Hour), 10)

	require.NoError(t, r.Confirm())
	assert.Equal(t, StatusConfirmed, r.Status)

	// Pending以外からの確定はエラー
	assert.ErrorIs(t, r.Confirm(), ErrNotPending)
}
