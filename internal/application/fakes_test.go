package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/lot"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/session"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/vehicle"
)

// fakeStore はテスト用のインメモリストア
// fakeTxManager がトランザクション区間を直列化するため、
// トランザクション内の再チェックは直前のコミットを必ず観測する
type fakeStore struct {
	mu           sync.RWMutex
	lots         map[string]*lot.Lot
	vehicles     map[string]*vehicle.Vehicle
	reservations map[string]*reservation.Reservation
	sessions     map[string]*session.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lots:         make(map[string]*lot.Lot),
		vehicles:     make(map[string]*vehicle.Vehicle),
		reservations: make(map[string]*reservation.Reservation),
		sessions:     make(map[string]*session.Session),
	}
}

func (s *fakeStore) addLot(l *lot.Lot) *lot.Lot {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.lots[l.ID] = &cp
	return l
}

func (s *fakeStore) addVehicle(v *vehicle.Vehicle) *vehicle.Vehicle {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.vehicles[v.ID] = &cp
	return v
}

func (s *fakeStore) reservationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reservations)
}

func (s *fakeStore) sessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// fakeTx は書き込みをバッファし、Commitで一括適用する
// Rollbackはバッファを捨てるだけなので、失敗したトランザクションは痕跡を残さない
type fakeTx struct {
	store   *fakeStore
	manager *fakeTxManager
	pending []func(*fakeStore)
	done    bool
}

func (t *fakeTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	for _, apply := range t.pending {
		apply(t.store)
	}
	t.store.mu.Unlock()
	t.manager.txMu.Unlock()
	return nil
}

func (t *fakeTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.pending = nil
	t.manager.txMu.Unlock()
	return nil
}

// fakeTxManager はBeginからCommit/Rollbackまでを相互排他で直列化する
type fakeTxManager struct {
	store *fakeStore
	txMu  sync.Mutex
}

func newFakeTxManager(store *fakeStore) *fakeTxManager {
	return &fakeTxManager{store: store}
}

func (m *fakeTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	m.txMu.Lock()
	return &fakeTx{store: m.store, manager: m}, nil
}

func pendingOf(tx transaction.Tx) *fakeTx {
	if tx == nil {
		return nil
	}
	return tx.(*fakeTx)
}

// --- lot repository ---

type fakeLotRepo struct {
	store *fakeStore
	// updateReservedErr が非nilのとき UpdateReserved は失敗する
	updateReservedErr error
}

func (r *fakeLotRepo) Create(ctx context.Context, l *lot.Lot) error {
	r.store.addLot(l)
	return nil
}

func (r *fakeLotRepo) GetByID(ctx context.Context, id string) (*lot.Lot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	l, ok := r.store.lots[id]
	if !ok {
		return nil, lot.ErrLotNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLotRepo) GetByNameAndAddress(ctx context.Context, name, address string) (*lot.Lot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, l := range r.store.lots {
		if l.Name == name && l.Address == address {
			cp := *l
			return &cp, nil
		}
	}
	return nil, lot.ErrLotNotFound
}

func (r *fakeLotRepo) List(ctx context.Context, limit, offset int) ([]*lot.Lot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*lot.Lot, 0, len(r.store.lots))
	for _, l := range r.store.lots {
		cp := *l
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeLotRepo) Update(ctx context.Context, l *lot.Lot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.lots[l.ID]; !ok {
		return lot.ErrLotNotFound
	}
	cp := *l
	r.store.lots[l.ID] = &cp
	return nil
}

func (r *fakeLotRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.lots[id]; !ok {
		return lot.ErrLotNotFound
	}
	delete(r.store.lots, id)
	return nil
}

func (r *fakeLotRepo) UpdateReserved(ctx context.Context, tx transaction.Tx, id string, delta int) error {
	if r.updateReservedErr != nil {
		return r.updateReservedErr
	}
	t := pendingOf(tx)
	t.pending = append(t.pending, func(s *fakeStore) {
		if l, ok := s.lots[id]; ok {
			l.Reserved += delta
			if l.Reserved < 0 {
				l.Reserved = 0
			}
		}
	})
	return nil
}

func (r *fakeLotRepo) SetReserved(ctx context.Context, id string, reserved int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if l, ok := r.store.lots[id]; ok {
		l.Reserved = reserved
	}
	return nil
}

// --- vehicle repository ---

type fakeVehicleRepo struct {
	store *fakeStore
}

func (r *fakeVehicleRepo) Create(ctx context.Context, v *vehicle.Vehicle) error {
	r.store.addVehicle(v)
	return nil
}

func (r *fakeVehicleRepo) GetByID(ctx context.Context, id string) (*vehicle.Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	v, ok := r.store.vehicles[id]
	if !ok {
		return nil, vehicle.ErrVehicleNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVehicleRepo) GetByPlate(ctx context.Context, normalizedPlate string) (*vehicle.Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, v := range r.store.vehicles {
		if v.NormalizedPlate == normalizedPlate {
			cp := *v
			return &cp, nil
		}
	}
	return nil, vehicle.ErrVehicleNotFound
}

func (r *fakeVehicleRepo) GetByUserAndPlate(ctx context.Context, userID, normalizedPlate string) (*vehicle.Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, v := range r.store.vehicles {
		if v.UserID == userID && v.NormalizedPlate == normalizedPlate {
			cp := *v
			return &cp, nil
		}
	}
	return nil, vehicle.ErrVehicleNotFound
}

func (r *fakeVehicleRepo) ListByUserID(ctx context.Context, userID string) ([]*vehicle.Vehicle, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*vehicle.Vehicle
	for _, v := range r.store.vehicles {
		if v.UserID == userID {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeVehicleRepo) Update(ctx context.Context, v *vehicle.Vehicle) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.vehicles[v.ID]; !ok {
		return vehicle.ErrVehicleNotFound
	}
	cp := *v
	r.store.vehicles[v.ID] = &cp
	return nil
}

func (r *fakeVehicleRepo) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.vehicles[id]; !ok {
		return vehicle.ErrVehicleNotFound
	}
	delete(r.store.vehicles, id)
	return nil
}

// --- reservation repository ---

type fakeReservationRepo struct {
	store *fakeStore
	// createErr が非nilのとき Create は失敗する
	createErr error
}

func (r *fakeReservationRepo) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	if r.createErr != nil {
		return r.createErr
	}
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	cp := *res
	t := pendingOf(tx)
	t.pending = append(t.pending, func(s *fakeStore) {
		s.reservations[cp.ID] = &cp
	})
	return nil
}

func (r *fakeReservationRepo) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *fakeReservationRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*reservation.Reservation
	for _, res := range r.store.reservations {
		if res.UserID == userID {
			cp := *res
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	cp := *res
	t := pendingOf(tx)
	t.pending = append(t.pending, func(s *fakeStore) {
		s.reservations[cp.ID] = &cp
	})
	return nil
}

func (r *fakeReservationRepo) HasOverlappingForVehicle(ctx context.Context, tx transaction.Tx, vehicleID string, startAt, endAt time.Time) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, res := range r.store.reservations {
		if res.VehicleID == vehicleID && res.CountsAgainstCapacity() && res.Overlaps(startAt, endAt) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReservationRepo) CountOverlappingForLot(ctx context.Context, tx transaction.Tx, lotID string, startAt, endAt time.Time) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	count := 0
	for _, res := range r.store.reservations {
		if res.LotID == lotID && res.CountsAgainstCapacity() && res.Overlaps(startAt, endAt) {
			count++
		}
	}
	return count, nil
}

// --- session repository ---

type fakeSessionRepo struct {
	store *fakeStore
}

func (r *fakeSessionRepo) Create(ctx context.Context, tx transaction.Tx, sess *session.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	cp := *sess
	t := pendingOf(tx)
	t.pending = append(t.pending, func(s *fakeStore) {
		s.sessions[cp.ID] = &cp
	})
	return nil
}

func (r *fakeSessionRepo) GetByID(ctx context.Context, id string) (*session.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	sess, ok := r.store.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (r *fakeSessionRepo) GetOpen(ctx context.Context, tx transaction.Tx, lotID, normalizedPlate string, userID *string) (*session.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, sess := range r.store.sessions {
		if sess.LotID != lotID || sess.LicensePlate != normalizedPlate || sess.EndAt != nil {
			continue
		}
		if userID != nil && (sess.UserID == nil || *sess.UserID != *userID) {
			continue
		}
		cp := *sess
		return &cp, nil
	}
	return nil, session.ErrSessionNotFound
}

func (r *fakeSessionRepo) CountOpenForLot(ctx context.Context, tx transaction.Tx, lotID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	count := 0
	for _, sess := range r.store.sessions {
		if sess.LotID == lotID && sess.EndAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, tx transaction.Tx, sess *session.Session) error {
	cp := *sess
	t := pendingOf(tx)
	t.pending = append(t.pending, func(s *fakeStore) {
		s.sessions[cp.ID] = &cp
	})
	return nil
}

func (r *fakeSessionRepo) ListByLotID(ctx context.Context, lotID string, limit, offset int) ([]*session.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*session.Session
	for _, sess := range r.store.sessions {
		if sess.LotID == lotID {
			cp := *sess
			out = append(out, &cp)
		}
	}
	return out, nil
}

var (
	_ lot.Repository         = (*fakeLotRepo)(nil)
	_ vehicle.Repository     = (*fakeVehicleRepo)(nil)
	_ reservation.Repository = (*fakeReservationRepo)(nil)
	_ session.Repository     = (*fakeSessionRepo)(nil)
	_ transaction.Manager    = (*fakeTxManager)(nil)
)
