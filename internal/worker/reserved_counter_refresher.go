package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-parking-reservation/internal/pkg/logger"
)

// CounterRefresher は表示用カウンターを再計算するインターフェース
type CounterRefresher interface {
	RefreshReservedCounters(ctx context.Context) (int, error)
}

// ReservedCounterRefresher は駐車場の表示用予約カウンターを
// 実際の重複予約数で定期的に補正するワーカー
// カウンターは参考値であり、空き判定の真実にはならない
type ReservedCounterRefresher struct {
	lotService CounterRefresher
	interval   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewReservedCounterRefresher は新しいリフレッシャーを作成
func NewReservedCounterRefresher(ls CounterRefresher, interval time.Duration) *ReservedCounterRefresher {
	return &ReservedCounterRefresher{
		lotService: ls,
		interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start はリフレッシャーを開始
func (r *ReservedCounterRefresher) Start(ctx context.Context) {
	logger.Info("予約カウンターリフレッシャー開始",
		zap.Duration("interval", r.interval),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("予約カウンターリフレッシャー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("予約カウンターリフレッシャー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// Stop はリフレッシャーを停止
func (r *ReservedCounterRefresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// refresh は全駐車場のカウンターを補正
func (r *ReservedCounterRefresher) refresh(ctx context.Context) {
	log := logger.Get()
	log.Debug("予約カウンターの再計算開始")

	updated, err := r.lotService.RefreshReservedCounters(ctx)
	if err != nil {
		log.Error("予約カウンターの再計算失敗", zap.Error(err))
		return
	}

	if updated > 0 {
		log.Info("予約カウンターを補正", zap.Int("updated", updated))
	} else {
		log.Debug("補正が必要な駐車場なし")
	}
}
