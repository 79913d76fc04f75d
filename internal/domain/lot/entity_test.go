package lot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLot(t *testing.T) {
	l := NewLot("Central", "Rotterdam", "Coolsingel 1", 50, 2.5, 20, 51.92, 4.47)
	require.NoError(t, l.Validate())

	assert.Equal(t, 50, l.Capacity)
	assert.Equal(t, 0, l.Reserved)
	assert.InDelta(t, 2.5, l.Tariff, 1e-9)
	assert.InDelta(t, 20, l.DayTariff, 1e-9)
}

func TestLot_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Lot)
		errExpected error
	}{
		{"名前未指定", func(l *Lot) { l.Name = "" }, ErrNameRequired},
		{"住所未指定", func(l *Lot) { l.Address = "" }, ErrAddressRequired},
		{"容量ゼロ", func(l *Lot) { l.Capacity = 0 }, ErrInvalidCapacity},
		{"負のタリフ", func(l *Lot) { l.Tariff = -1 }, ErrInvalidTariff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLot("Central", "Rotterdam", "Coolsingel 1", 50, 2.5, 20, 0, 0)
			tt.mutate(l)
			assert.ErrorIs(t, l.Validate(), tt.errExpected)
		})
	}
}

func TestLot_BreakEvenHours(t *testing.T) {
	l := NewLot("Central", "Rotterdam", "Coolsingel 1", 50, 2.5, 20, 0, 0)
	assert.InDelta(t, 8, l.BreakEvenHours(), 1e-9)

	// タリフ0では分岐点なし
	l.Tariff = 0
	assert.Zero(t, l.BreakEvenHours())
}
