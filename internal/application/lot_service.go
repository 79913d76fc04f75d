package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/apperror"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/lot"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/reservation"
	redislock "github.com/sanosuguru/go-parking-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-parking-reservation/internal/pkg/logger"
)

// ParkingLotService は駐車場マスタの管理と空き台数の照会を行う
type ParkingLotService struct {
	lotRepo         lot.Repository
	reservationRepo reservation.Repository
	cache           *redislock.OccupancyCache
}

func NewParkingLotService(lr lot.Repository, rr reservation.Repository, cache *redislock.OccupancyCache) *ParkingLotService {
	return &ParkingLotService{
		lotRepo:         lr,
		reservationRepo: rr,
		cache:           cache,
	}
}

type CreateLotInput struct {
	Name      string
	Location  string
	Address   string
	Capacity  int
	Tariff    float64
	DayTariff float64
	Latitude  float64
	Longitude float64
}

type UpdateLotInput struct {
	ID        string
	Name      string
	Location  string
	Address   string
	Capacity  int
	Tariff    float64
	DayTariff float64
	Latitude  float64
	Longitude float64
}

// CreateLot は駐車場を登録する。名前と住所の組が一致する既存エントリがあれば拒否する
func (s *ParkingLotService) CreateLot(ctx context.Context, input CreateLotInput) (*lot.Lot, error) {
	l := lot.NewLot(input.Name, input.Location, input.Address, input.Capacity, input.Tariff, input.DayTariff, input.Latitude, input.Longitude)
	if err := l.Validate(); err != nil {
		return nil, err
	}

	_, err := s.lotRepo.GetByNameAndAddress(ctx, l.Name, l.Address)
	if err == nil {
		return nil, lot.ErrLotAlreadyExists
	}
	if !errors.Is(err, lot.ErrLotNotFound) {
		return nil, err
	}

	if err := s.lotRepo.Create(ctx, l); err != nil {
		return nil, asStoreError(err, "Failed to create parking lot, please retry.")
	}

	logger.Info("駐車場を登録", zap.String("lot_id", l.ID), zap.String("name", l.Name))
	return l, nil
}

// GetLot はIDから駐車場を取得する
func (s *ParkingLotService) GetLot(ctx context.Context, id string) (*lot.Lot, error) {
	return s.lotRepo.GetByID(ctx, id)
}

// ListLots は駐車場一覧を取得する
func (s *ParkingLotService) ListLots(ctx context.Context, limit, offset int) ([]*lot.Lot, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.lotRepo.List(ctx, limit, offset)
}

// UpdateLot は駐車場の属性を更新する
func (s *ParkingLotService) UpdateLot(ctx context.Context, input UpdateLotInput) (*lot.Lot, error) {
	l, err := s.lotRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	l.Name = input.Name
	l.Location = input.Location
	l.Address = input.Address
	l.Capacity = input.Capacity
	l.Tariff = input.Tariff
	l.DayTariff = input.DayTariff
	l.Latitude = input.Latitude
	l.Longitude = input.Longitude
	if err := l.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.lotRepo.GetByNameAndAddress(ctx, l.Name, l.Address)
	if err == nil && existing.ID != l.ID {
		return nil, lot.ErrLotAlreadyExists
	}
	if err != nil && !errors.Is(err, lot.ErrLotNotFound) {
		return nil, err
	}

	if err := s.lotRepo.Update(ctx, l); err != nil {
		return nil, asStoreError(err, "Failed to update parking lot, please retry.")
	}

	s.invalidate(ctx, l.ID)
	return l, nil
}

// DeleteLot は駐車場を削除する
func (s *ParkingLotService) DeleteLot(ctx context.Context, id string) error {
	if err := s.lotRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Availability は指定区間の空き台数
type Availability struct {
	LotID     string `json:"lot_id"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
}

// GetAvailability は区間 [startAt, endAt) に重なる予約数から空き台数を算出する
// 区間が現在時刻のスナップショット（startAt == endAt）の場合はキャッシュを使う
func (s *ParkingLotService) GetAvailability(ctx context.Context, lotID string, startAt, endAt time.Time) (*Availability, error) {
	l, err := s.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	snapshot := startAt.Equal(endAt)
	if snapshot && s.cache != nil {
		if available, err := s.cache.GetAvailable(ctx, lotID); err == nil {
			return &Availability{
				LotID:     l.ID,
				Capacity:  l.Capacity,
				Booked:    l.Capacity - available,
				Available: available,
			}, nil
		}
	}

	booked, err := s.reservationRepo.CountOverlappingForLot(ctx, nil, lotID, startAt, endAt)
	if err != nil {
		return nil, apperror.Transient("Failed to count reservations.", err)
	}
	available := l.Capacity - booked
	if available < 0 {
		available = 0
	}

	if snapshot && s.cache != nil {
		if err := s.cache.SetAvailable(ctx, lotID, available, 30*time.Second); err != nil {
			logger.Warn("空き台数キャッシュの保存に失敗", zap.String("lot_id", lotID), zap.Error(err))
		}
	}

	return &Availability{
		LotID:     l.ID,
		Capacity:  l.Capacity,
		Booked:    booked,
		Available: available,
	}, nil
}

// RefreshReservedCounters は全駐車場の表示用カウンターを現在時刻の実数で再計算する
// ワーカーから定期的に呼ばれる。戻り値は更新した駐車場の数
func (s *ParkingLotService) RefreshReservedCounters(ctx context.Context) (int, error) {
	now := time.Now()
	updated := 0
	offset := 0
	const pageSize = 100

	for {
		lots, err := s.lotRepo.List(ctx, pageSize, offset)
		if err != nil {
			return updated, err
		}
		for _, l := range lots {
			count, err := s.reservationRepo.CountOverlappingForLot(ctx, nil, l.ID, now, now)
			if err != nil {
				logger.Warn("予約数の再計算に失敗", zap.String("lot_id", l.ID), zap.Error(err))
				continue
			}
			if count == l.Reserved {
				continue
			}
			if err := s.lotRepo.SetReserved(ctx, l.ID, count); err != nil {
				logger.Warn("カウンターの更新に失敗", zap.String("lot_id", l.ID), zap.Error(err))
				continue
			}
			updated++
		}
		if len(lots) < pageSize {
			return updated, nil
		}
		offset += pageSize
	}
}

func (s *ParkingLotService) invalidate(ctx context.Context, lotID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, lotID); err != nil {
		logger.Warn("空き台数キャッシュの無効化に失敗", zap.String("lot_id", lotID), zap.Error(err))
	}
}
