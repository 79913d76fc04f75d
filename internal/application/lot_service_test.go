package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/lot"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/vehicle"
)

func newLotFixture(t *testing.T) (*ParkingLotService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	lotRepo := &fakeLotRepo{store: store}
	resRepo := &fakeReservationRepo{store: store}
	return NewParkingLotService(lotRepo, resRepo, nil), store
}

func validLotInput() CreateLotInput {
	return CreateLotInput{
		Name:      "南口駐車場",
		Location:  "品川",
		Address:   "東京都港区7-8-9",
		Capacity:  10,
		Tariff:    2.0,
		DayTariff: 15,
	}
}

func TestParkingLotService_CreateLot(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系_駐車場を登録できる", func(t *testing.T) {
		svc, store := newLotFixture(t)

		l, err := svc.CreateLot(ctx, validLotInput())
		require.NoError(t, err)
		assert.NotEmpty(t, l.ID)
		assert.Equal(t, 0, l.Reserved)
		assert.Len(t, store.lots, 1)
	})

	t.Run("異常系_名前と住所が同じ駐車場は二重登録できない", func(t *testing.T) {
		svc, _ := newLotFixture(t)

		_, err := svc.CreateLot(ctx, validLotInput())
		require.NoError(t, err)

		_, err = svc.CreateLot(ctx, validLotInput())
		assert.ErrorIs(t, err, lot.ErrLotAlreadyExists)
	})

	t.Run("正常系_住所が違えば同名でも登録できる", func(t *testing.T) {
		svc, _ := newLotFixture(t)

		_, err := svc.CreateLot(ctx, validLotInput())
		require.NoError(t, err)

		in := validLotInput()
		in.Address = "東京都港区10-11-12"
		_, err = svc.CreateLot(ctx, in)
		assert.NoError(t, err)
	})

	t.Run("異常系_入力検証", func(t *testing.T) {
		svc, _ := newLotFixture(t)

		cases := []struct {
			name    string
			mutate  func(*CreateLotInput)
			wantErr error
		}{
			{"名前必須", func(in *CreateLotInput) { in.Name = "" }, lot.ErrNameRequired},
			{"住所必須", func(in *CreateLotInput) { in.Address = "" }, lot.ErrAddressRequired},
			{"容量は正", func(in *CreateLotInput) { in.Capacity = 0 }, lot.ErrInvalidCapacity},
			{"料金は非負", func(in *CreateLotInput) { in.Tariff = -1 }, lot.ErrInvalidTariff},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				in := validLotInput()
				tc.mutate(&in)
				_, err := svc.CreateLot(ctx, in)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})
}

func TestParkingLotService_UpdateLot(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系_自分自身との名前住所一致は重複ではない", func(t *testing.T) {
		svc, _ := newLotFixture(t)
		l, err := svc.CreateLot(ctx, validLotInput())
		require.NoError(t, err)

		updated, err := svc.UpdateLot(ctx, UpdateLotInput{
			ID:        l.ID,
			Name:      l.Name,
			Location:  l.Location,
			Address:   l.Address,
			Capacity:  20,
			Tariff:    l.Tariff,
			DayTariff: l.DayTariff,
		})
		require.NoError(t, err)
		assert.Equal(t, 20, updated.Capacity)
	})

	t.Run("異常系_別の駐車場と名前住所が衝突する更新は拒否される", func(t *testing.T) {
		svc, _ := newLotFixture(t)
		_, err := svc.CreateLot(ctx, validLotInput())
		require.NoError(t, err)

		in := validLotInput()
		in.Address = "東京都港区10-11-12"
		other, err := svc.CreateLot(ctx, in)
		require.NoError(t, err)

		_, err = svc.UpdateLot(ctx, UpdateLotInput{
			ID:        other.ID,
			Name:      validLotInput().Name,
			Address:   validLotInput().Address,
			Capacity:  other.Capacity,
			Tariff:    other.Tariff,
			DayTariff: other.DayTariff,
		})
		assert.ErrorIs(t, err, lot.ErrLotAlreadyExists)
	})
}

func TestParkingLotService_GetAvailability(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	seed := func(t *testing.T) (*ParkingLotService, *fakeStore, *lot.Lot) {
		svc, store := newLotFixture(t)
		l := store.addLot(lot.NewLot("東口駐車場", "上野", "東京都台東区1-1-1", 5, 2.5, 20, 35.71, 139.77))
		return svc, store, l
	}

	addReservation := func(store *fakeStore, lotID string, start, end time.Time, status reservation.Status) {
		v := store.addVehicle(vehicle.NewVehicle("ZZ-000-ZZ", "", "", "", 0, "user-x"))
		res := reservation.NewReservation(lotID, v.ID, v.UserID, start, end, 0)
		res.ID = v.ID // テスト内でユニークであればよい
		res.Status = status
		store.mu.Lock()
		store.reservations[res.ID] = res
		store.mu.Unlock()
	}

	t.Run("正常系_重複する予約数だけ空きが減る", func(t *testing.T) {
		svc, store, l := seed(t)
		addReservation(store, l.ID, base, base.Add(24*time.Hour), reservation.StatusPending)
		addReservation(store, l.ID, base.Add(2*time.Hour), base.Add(10*time.Hour), reservation.StatusConfirmed)
		// 区間外の予約は数えない
		addReservation(store, l.ID, base.Add(48*time.Hour), base.Add(72*time.Hour), reservation.StatusPending)
		// キャンセル済みも数えない
		addReservation(store, l.ID, base, base.Add(24*time.Hour), reservation.StatusCancelled)

		avail, err := svc.GetAvailability(ctx, l.ID, base, base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 5, avail.Capacity)
		assert.Equal(t, 2, avail.Booked)
		assert.Equal(t, 3, avail.Available)
	})

	t.Run("異常系_駐車場が存在しない", func(t *testing.T) {
		svc, _, _ := seed(t)
		_, err := svc.GetAvailability(ctx, "missing", base, base)
		assert.ErrorIs(t, err, lot.ErrLotNotFound)
	})
}

func TestParkingLotService_RefreshReservedCounters(t *testing.T) {
	ctx := context.Background()

	svc, store := newLotFixture(t)
	l := store.addLot(lot.NewLot("西口駐車場", "池袋", "東京都豊島区2-2-2", 5, 2.5, 20, 35.73, 139.71))

	// 現在進行中の予約1件と過去の予約1件
	v := store.addVehicle(vehicle.NewVehicle("AB-123-CD", "", "", "", 0, "user-1"))
	now := time.Now()
	active := reservation.NewReservation(l.ID, v.ID, v.UserID, now.Add(-time.Hour), now.Add(time.Hour), 0)
	active.ID = "res-active"
	past := reservation.NewReservation(l.ID, v.ID, v.UserID, now.Add(-48*time.Hour), now.Add(-24*time.Hour), 0)
	past.ID = "res-past"
	store.mu.Lock()
	store.reservations[active.ID] = active
	store.reservations[past.ID] = past
	store.lots[l.ID].Reserved = 9 // ずれたカウンター
	store.mu.Unlock()

	updated, err := svc.RefreshReservedCounters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Equal(t, 1, store.lots[l.ID].Reserved)
}
