package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-parking-reservation/internal/domain/apperror"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/lot"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/session"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-parking-reservation/internal/domain/vehicle"
	redislock "github.com/sanosuguru/go-parking-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-parking-reservation/internal/pkg/logger"
)

// SessionService はふらっと入庫（予約なし駐車）の開始・終了と課金を扱う
type SessionService struct {
	txManager   transaction.Manager
	sessionRepo session.Repository
	lotRepo     lot.Repository
	lockManager *redislock.LockManager
	cache       *redislock.OccupancyCache
}

func NewSessionService(
	tm transaction.Manager,
	sr session.Repository,
	lr lot.Repository,
	lm *redislock.LockManager,
	cache *redislock.OccupancyCache,
) *SessionService {
	return &SessionService{
		txManager:   tm,
		sessionRepo: sr,
		lotRepo:     lr,
		lockManager: lm,
		cache:       cache,
	}
}

type StartSessionInput struct {
	LotID        string
	LicensePlate string
	// UserID はnil可（匿名入庫を許す）
	UserID *string
}

type StopSessionInput struct {
	LotID        string
	LicensePlate string
	UserID       *string
}

// StartSession は入庫セッションを開始する
// 同一駐車場への同時入庫を直列化し、満車判定と二重入庫判定をトランザクション内で行う
func (s *SessionService) StartSession(ctx context.Context, input StartSessionInput) (*session.Session, error) {
	if strings.TrimSpace(input.LicensePlate) == "" {
		return nil, session.ErrPlateRequired
	}
	plate := vehicle.NormalizePlate(input.LicensePlate)

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

	sess := session.NewSession(l.ID, plate, input.UserID, time.Now())

	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		open, err := s.sessionRepo.CountOpenForLot(ctx, tx, l.ID)
		if err != nil {
			return err
		}
		if open >= l.Capacity {
			return session.ErrLotFull
		}

		_, err = s.sessionRepo.GetOpen(ctx, tx, l.ID, plate, nil)
		if err == nil {
			return session.ErrSessionAlreadyActive
		}
		if !errors.Is(err, session.ErrSessionNotFound) {
			return err
		}

		// 部分ユニークインデックスが最後の砦。違反は ErrSessionAlreadyActive に写像される
		return s.sessionRepo.Create(ctx, tx, sess)
	})
	if err != nil {
		return nil, asStoreError(err, "Failed to start session, please retry.")
	}

	s.invalidateOccupancy(ctx, l.ID)

	logger.Info("入庫セッションを開始",
		zap.String("session_id", sess.ID),
		zap.String("lot_id", l.ID),
		zap.String("plate", plate),
	)
	return sess, nil
}

// StopSession は開いているセッションを終了し、料金を確定する
// 料金は時間課金とデイ上限の小さい方
func (s *SessionService) StopSession(ctx context.Context, input StopSessionInput) (*session.Session, session.Billing, error) {
	if strings.TrimSpace(input.LicensePlate) == "" {
		return nil, session.Billing{}, session.ErrPlateRequired
	}
	plate := vehicle.NormalizePlate(input.LicensePlate)

	if s.lockManager != nil {
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, redislock.SessionKey(input.LotID, plate), 10*time.Second, 3, 100*time.Millisecond)
		if err != nil {
			if errors.Is(err, redislock.ErrLockNotAcquired) {
				return nil, session.Billing{}, apperror.Transient("Session is busy, please retry.", err)
			}
			return nil, session.Billing{}, apperror.Transient("Failed to acquire lock.", err)
		}
		defer lock.Release(ctx)
	}

	l, err := s.lotRepo.GetByID(ctx, input.LotID)
	if err != nil {
		return nil, session.Billing{}, err
	}

	var (
		sess    *session.Session
		billing session.Billing
	)
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		sess, err = s.sessionRepo.GetOpen(ctx, tx, l.ID, plate, input.UserID)
		if err != nil {
			return err
		}
		billing, err = sess.Close(time.Now(), l.Tariff, l.DayTariff)
		if err != nil {
			return err
		}
		return s.sessionRepo.Update(ctx, tx, sess)
	})
	if err != nil {
		return nil, session.Billing{}, asStoreError(err, "Failed to stop session, please retry.")
	}

	s.invalidateOccupancy(ctx, l.ID)

	logger.Info("入庫セッションを終了",
		zap.String("session_id", sess.ID),
		zap.String("lot_id", l.ID),
		zap.Int("duration_minutes", billing.DurationInMinutes),
		zap.Float64("cost", billing.CalculatedCost),
	)
	return sess, billing, nil
}

// GetSession はIDからセッションを取得する
func (s *SessionService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	return s.sessionRepo.GetByID(ctx, id)
}

// GetLotSessions は駐車場のセッション一覧を取得する
func (s *SessionService) GetLotSessions(ctx context.Context, lotID string, limit, offset int) ([]*session.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.sessionRepo.ListByLotID(ctx, lotID, limit, offset)
}

func (s *SessionService) invalidateOccupancy(ctx context.Context, lotID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, lotID); err != nil {
		logger.Warn("空き台数キャッシュの無効化に失敗", zap.String("lot_id", lotID), zap.Error(err))
	}
}
