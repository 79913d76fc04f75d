package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-parking-reservation/internal/pkg/metrics"
)

func TestLockKeys(t *testing.T) {
	assert.Equal(t, "lot:lot-1", LotKey("lot-1"))
	assert.Equal(t, "session:lot-1:AB123CD", SessionKey("lot-1", "AB123CD"))
}

func lockDurationSamples(t *testing.T, reg *prometheus.Registry) int {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "distributed_lock_duration_seconds" {
			return len(f.GetMetric())
		}
	}
	return 0
}

func TestLockManager_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.NewWithRegistry(reg)

	t.Run("取得と解放の所要時間を記録する", func(t *testing.T) {
		start := time.Now()
		observeLock(mt, "acquire", "success", start)
		observeLock(mt, "acquire", "failed", start)
		observeLock(mt, "release", "success", start)

		assert.Equal(t, 3, lockDurationSamples(t, reg))
	})

	t.Run("メトリクス未設定でもパニックしない", func(t *testing.T) {
		assert.NotPanics(t, func() {
			observeLock(nil, "acquire", "success", time.Now())
		})
	})
}

func TestLockManager_AcquireLock(t *testing.T) {
	client, err := NewClient(&Config{Host: "localhost", Port: "6379"})
	if err != nil {
		t.Skip("Redis not available")
	}
	defer client.Close()

	ctx := context.Background()
	manager := NewLockManager(client)

	t.Run("ロックを取得できる", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, LotKey("test-lot-1"), 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, lock)
		defer lock.Release(ctx)
	})

	t.Run("同じキーのロックは取得できない", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, LotKey("test-lot-2"), 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLock(ctx, LotKey("test-lot-2"), 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, SessionKey("test-lot-3", "AB123CD"), 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock1.Release(ctx))

		lock2, err := manager.AcquireLock(ctx, SessionKey("test-lot-3", "AB123CD"), 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("計測付きで取得・解放を記録する", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		mt := metrics.NewWithRegistry(reg)
		measured := NewLockManager(client).WithMetrics(mt)

		lock, err := measured.AcquireLock(ctx, LotKey("test-lot-metrics"), 5*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release(ctx))

		// acquire success + release success で2系列
		assert.Equal(t, 2, lockDurationSamples(t, reg))
	})

	t.Run("リトライで取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, LotKey("test-lot-4"), 500*time.Millisecond)
		require.NoError(t, err)

		go func() {
			time.Sleep(200 * time.Millisecond)
			lock1.Release(ctx)
		}()

		lock2, err := manager.AcquireLockWithRetry(ctx, LotKey("test-lot-4"), 5*time.Second, 5, 100*time.Millisecond)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})
}
