package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shopping-list-generator/internal/core/shopping"
	"shopping-list-generator/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	keyPrefix        = "shopping:list:"
	maxUpdateRetries = 5
)

// RedisStore 以 redis 保存清單，更新使用 WATCH/MULTI 樂觀鎖
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions redis 連線設定
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore 創建 redis 儲存並測試連線
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 儲存已連線",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Duration("ttl", opts.TTL),
	)

	return NewRedisStoreWithClient(client, opts.TTL), nil
}

// NewRedisStoreWithClient 使用既有 client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func listKey(id string) string {
	return keyPrefix + id
}

// Save 儲存清單
func (s *RedisStore) Save(ctx context.Context, list *shopping.ShoppingList) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list: %w", err)
	}
	if err := s.client.Set(ctx, listKey(list.ID), data, s.ttl).Err(); err != nil {
		return common.ErrStoreError.Wrap(fmt.Errorf("failed to save list %s: %w", list.ID, err))
	}
	return nil
}

// Get 取得清單
func (s *RedisStore) Get(ctx context.Context, id string) (*shopping.ShoppingList, error) {
	return s.get(ctx, s.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, c getter, id string) (*shopping.ShoppingList, error) {
	data, err := c.Get(ctx, listKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get %s: %w", id, ErrListNotFound)
		}
		return nil, common.ErrStoreError.Wrap(fmt.Errorf("failed to get list %s: %w", id, err))
	}

	var list shopping.ShoppingList
	if err := common.ParseJSONBytes(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list: %w", err)
	}
	return &list, nil
}

// Update 以 WATCH 保護讀取-修改-寫入，衝突時重試
func (s *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (*shopping.ShoppingList, error) {
	key := listKey(id)
	var updated *shopping.ShoppingList

	txf := func(tx *redis.Tx) error {
		list, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(list); err != nil {
			return err
		}
		data, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("failed to marshal shopping list: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err == nil {
			updated = list
		}
		return err
	}

	if err := watchWithRetry(ctx, id, func() error { return s.client.Watch(ctx, txf, key) }); err != nil {
		return nil, err
	}
	return updated, nil
}

// watchWithRetry 執行 attempt，遇到 WATCH 衝突時重試，超過次數回傳 ErrConflict
func watchWithRetry(ctx context.Context, id string, attempt func() error) error {
	for i := 0; i < maxUpdateRetries; i++ {
		err := attempt()
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		common.LogWarn("清單更新衝突，重試中",
			zap.String("list_id", id),
			zap.Int("attempt", i+1),
		)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return common.ErrConflict.Wrap(fmt.Errorf("update %s: too many concurrent modifications", id))
}

// Delete 刪除清單
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, listKey(id)).Result()
	if err != nil {
		return common.ErrStoreError.Wrap(err)
	}
	if n == 0 {
		return fmt.Errorf("delete %s: %w", id, ErrListNotFound)
	}
	return nil
}

// Len 以 SCAN 計算清單數
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, common.ErrStoreError.Wrap(err)
	}
	return count, nil
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}
