package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/apperror"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/lot"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/vehicle"
	redislock "github.com/sanosuguru/go-parking-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-parking-reservation/internal/pkg/logger"
)

// ReservationService は予約の受付判定を行う
// 検証（副作用なし）→ ロック取得 → トランザクション内で再チェック＋挿入、の順を崩さないこと
type ReservationService struct {
	txManager       transaction.Manager
	reservationRepo reservation.Repository
	lotRepo         lot.Repository
	vehicleRepo     vehicle.Repository
	lockManager     *redislock.LockManager
	cache           *redislock.OccupancyCache
}

func NewReservationService(
	tm transaction.Manager,
	rr reservation.Repository,
	lr lot.Repository,
	vr vehicle.Repository,
	lm *redislock.LockManager,
	cache *redislock.OccupancyCache,
) *ReservationService {
	return &ReservationService{
		txManager:       tm,
		reservationRepo: rr,
		lotRepo:         lr,
		vehicleRepo:     vr,
		lockManager:     lm,
		cache:           cache,
	}
}

type CreateReservationInput struct {
	LicensePlate string
	LotID        string
	StartAt      time.Time
	EndAt        time.Time
}

// CreateReservation は予約リクエストを検証し、空きがあればPending予約を作成する
//
// 検証順序は固定:
//  1. ナンバー必須
//  2. 終了 > 開始
//  3. 開始が過去でない
//  4. 期間 <= 365日
//  5. 期間 >= 1時間
//  6. 駐車場の存在
//  7. 車両の存在（正規化ナンバーで照合）
//  8. 車両の重複予約なし
//  9. 駐車場の空き（重複区間の予約数 < capacity）
//
// 8と9はトランザクション内で再チェックしてから挿入する
func (s *ReservationService) CreateReservation(ctx context.Context, input CreateReservationInput) (*reservation.Reservation, error) {
	if strings.TrimSpace(input.LicensePlate) == "" {
		return nil, reservation.ErrPlateRequired
	}
	if err := reservation.ValidateWindow(input.StartAt, input.EndAt, time.Now()); err != nil {
		return nil, err
	}

	// 駐車場単位の分散ロックで check-then-act の競合を直列化する
	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, redislock.LotKey(input.LotID), 10*time.Second, 3, 100*time.Millisecond)
		if err != nil {
			if errors.Is(err, redislock.ErrLockNotAcquired) {
				return nil, apperror.Transient("Parking lot is busy, please retry.", err)
			}
			return nil, apperror.Transient("Failed to acquire lock.", err)
		}
		defer lock.Release(ctx)
	}

	l, err := s.lotRepo.GetByID(ctx, input.LotID)
	if err != nil {
		return nil, err
	}

	plate := vehicle.NormalizePlate(input.LicensePlate)
	v, err := s.vehicleRepo.GetByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}

	totalPrice := reservation.PriceFor(input.StartAt, input.EndAt, l.DayTariff)
	res := reservation.NewReservation(l.ID, v.ID, v.UserID, input.StartAt, input.EndAt, totalPrice)

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		// 重複・空きの判定は挿入と同一トランザクションで行う
		overlap, err := s.reservationRepo.HasOverlappingForVehicle(ctx, tx, v.ID, input.StartAt, input.EndAt)
		if err != nil {
			return err
		}
		if overlap {
			return reservation.ErrVehicleDoubleBooked
		}

		count, err := s.reservationRepo.CountOverlappingForLot(ctx, tx, l.ID, input.StartAt, input.EndAt)
		if err != nil {
			return err
		}
		if count >= l.Capacity {
			return reservation.ErrLotFullyBooked
		}

		if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
			return err
		}
		// 表示用カウンターの更新。空き判定には使わない
		return s.lotRepo.UpdateReserved(ctx, tx, l.ID, 1)
	})
	if err != nil {
		return nil, asStoreError(err, "Failed to create reservation, please retry.")
	}

	s.invalidateOccupancy(ctx, l.ID)

	logger.Info("予約を作成",
		zap.String("reservation_id", res.ID),
		zap.String("lot_id", l.ID),
		zap.String("plate", plate),
		zap.Float64("total_price", res.TotalPrice),
	)
	return res, nil
}

// GetReservation はIDから予約を取得する
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// GetUserReservations はユーザーの予約一覧を取得する
func (s *ReservationService) GetUserReservations(ctx context.Context, userID string, limit, offset int) ([]*reservation.Reservation, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.reservationRepo.ListByUserID(ctx, userID, limit, offset)
}

// ConfirmReservation は保留中の予約を確定する
func (s *ReservationService) ConfirmReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.Confirm(); err != nil {
		return nil, err
	}
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		return s.reservationRepo.Update(ctx, tx, res)
	})
	if err != nil {
		return nil, asStoreError(err, "Failed to confirm reservation, please retry.")
	}
	return res, nil
}

// CancelReservation は予約をキャンセルする
// キャンセル後は重複・空き判定の対象から外れる
func (s *ReservationService) CancelReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.Cancel(); err != nil {
		return nil, err
	}
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
			return err
		}
		return s.lotRepo.UpdateReserved(ctx, tx, res.LotID, -1)
	})
	if err != nil {
		return nil, asStoreError(err, "Failed to cancel reservation, please retry.")
	}

	s.invalidateOccupancy(ctx, res.LotID)
	return res, nil
}

func (s *ReservationService) invalidateOccupancy(ctx context.Context, lotID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, lotID); err != nil {
		logger.Warn("空き台数キャッシュの無効化に失敗", zap.String("lot_id", lotID), zap.Error(err))
	}
}

// asStoreError はビジネスルールのエラーをそのまま通し、
// それ以外のストア障害をTransient（再試行可能）に写像する
func asStoreError(err error, msg string) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperror.Transient(msg, fmt.Errorf("store error: %w", err))
}
