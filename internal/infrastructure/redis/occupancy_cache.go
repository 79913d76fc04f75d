package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("キャッシュが見つかりません")

// OccupancyCache は駐車場の空き台数の表示用キャッシュを管理する
// あくまで表示用であり、入庫・予約の可否判定には使わない
type OccupancyCache struct {
	client *redis.Client
}

// NewOccupancyCache は新しいOccupancyCacheインスタンスを作成する
func NewOccupancyCache(client *redis.Client) *OccupancyCache {
	return &OccupancyCache{client: client}
}

// GetAvailable は駐車場の空き台数をキャッシュから取得する
func (c *OccupancyCache) GetAvailable(ctx context.Context, lotID string) (int, error) {
	val, err := c.client.Get(ctx, c.availableKey(lotID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailable は駐車場の空き台数をキャッシュに保存する
func (c *OccupancyCache) SetAvailable(ctx context.Context, lotID string, count int, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.availableKey(lotID), count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は駐車場のキャッシュを無効化する
// 予約・入出庫の書き込み成功後に呼ぶ
func (c *OccupancyCache) Invalidate(ctx context.Context, lotID string) error {
	if err := c.client.Del(ctx, c.availableKey(lotID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *OccupancyCache) availableKey(lotID string) string {
	return fmt.Sprintf("lots:available:%s", lotID)
}
