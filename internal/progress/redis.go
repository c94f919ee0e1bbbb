package progress

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "serum-pyth:market"
	statusTTL = 7 * 24 * time.Hour
)

// RedisStatusStore 在 Redis 中记录每个市场最近一次的构建结果，供外部监控
type RedisStatusStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatusStore(rdb *redis.Client) *RedisStatusStore {
	return &RedisStatusStore{rdb: rdb, ttl: statusTTL}
}

func statusKey(address string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, address)
}

// Mark 写入一条记录并刷新 TTL
func (r *RedisStatusStore) Mark(ctx context.Context, rec MarketRecord) error {
	key := statusKey(rec.Address)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"name":       rec.Name,
			"run_id":     rec.RunID,
			"status":     int(rec.Status),
			"error":      rec.Error,
			"updated_at": time.Now().Unix(),
		})
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis mark %s: %w", key, err)
	}
	return nil
}

// Get 读取记录；key 不存在时返回 StatusUnknown
func (r *RedisStatusStore) Get(ctx context.Context, address string) (MarketRecord, error) {
	vals, err := r.rdb.HGetAll(ctx, statusKey(address)).Result()
	if err != nil {
		return MarketRecord{}, fmt.Errorf("redis get error: %w", err)
	}
	rec := MarketRecord{Address: address}
	if len(vals) == 0 {
		return rec, nil
	}
	rec.Name = vals["name"]
	rec.RunID = vals["run_id"]
	rec.Error = vals["error"]
	if n, err := strconv.Atoi(vals["status"]); err == nil {
		rec.Status = MarketStatus(n)
	}
	return rec, nil
}
