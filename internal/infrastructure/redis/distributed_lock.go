package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-parking-reservation/internal/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// DistributedLock は Redis を使用した分散ロック
// 予約は駐車場単位、セッションは (駐車場, ナンバー) 単位でキーを切る
type DistributedLock struct {
	client  *redis.Client
	key     string
	value   string
	ttl     time.Duration
	metrics *metrics.Metrics
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client  *redis.Client
	metrics *metrics.Metrics
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{client: client}
}

// WithMetrics はロック操作時間の計測を有効にする
func (m *LockManager) WithMetrics(mt *metrics.Metrics) *LockManager {
	m.metrics = mt
	return m
}

func observeLock(mt *metrics.Metrics, operation, status string, start time.Time) {
	if mt == nil {
		return
	}
	mt.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// LotKey は予約の空き判定を直列化するロックキーを返す
func LotKey(lotID string) string {
	return "lot:" + lotID
}

// SessionKey はセッション開始・終了を直列化するロックキーを返す
func SessionKey(lotID, normalizedPlate string) string {
	return "session:" + lotID + ":" + normalizedPlate
}

// AcquireLock はロックを取得する
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := uuid.New().String()
	start := time.Now()

	// SetNX を使用してロックを取得（キーが存在しない場合のみ設定）
	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		observeLock(m.metrics, "acquire", "failed", start)
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		observeLock(m.metrics, "acquire", "failed", start)
		return nil, ErrLockNotAcquired
	}

	observeLock(m.metrics, "acquire", "success", start)
	return &DistributedLock{
		client:  m.client,
		key:     lockKey,
		value:   lockValue,
		ttl:     ttl,
		metrics: m.metrics,
	}, nil
}

// AcquireLockWithRetry はリトライ付きでロックを取得する
func (m *LockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (*DistributedLock, error) {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lock, err := m.AcquireLock(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		lastErr = err
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

// Release はロックを解放する（Lua スクリプトで所有者確認と削除をアトミックに実行）
func (l *DistributedLock) Release(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	start := time.Now()
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Int()
	if err != nil {
		observeLock(l.metrics, "release", "failed", start)
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		observeLock(l.metrics, "release", "failed", start)
		return ErrLockNotOwned
	}
	observeLock(l.metrics, "release", "success", start)
	return nil
}

// Extend はロックの有効期限を延長する
func (l *DistributedLock) Extend(ctx context.Context, ttl time.Duration) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`
	result, err := l.client.Eval(ctx, script, []string{l.key}, l.value, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("ロック延長に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	l.ttl = ttl
	return nil
}
