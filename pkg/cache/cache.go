// Package cache 提供基于键值存储的对象内容读穿缓存.
//
// 缓存以 bucketkey 为键. bucketkey 含 uuid，同一个键对应的内容写入后不会改变，
// 因此缓存不需要失效：资产被删除后元数据查询先失败，缓存中的旧内容不会再被读到.
//
// 基本用法:
//
//	store, _ := kv.New(ctx, cfg.Cache)
//	c := cache.New(store, cfg.Cache)
//
//	data, err := c.GetOrLoad(ctx, "alice/5f0c...-cat.jpg", func(ctx context.Context) ([]byte, error) {
//		return objects.Get(ctx, "alice/5f0c...-cat.jpg")
//	})
//
// 缓存读写失败只记录日志并按未命中处理，不会让下载失败.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/internal/storage/kv"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/metrics"
)

const keyPrefix = "blob:"

// BlobCache 对象内容缓存.
type BlobCache struct {
	store    kv.Store
	ttl      time.Duration
	maxBytes int64
}

// New 创建缓存实例. maxObjectBytes 为 0 时不限制对象大小.
func New(store kv.Store, cfg configs.CacheConfig) *BlobCache {
	return &BlobCache{
		store:    store,
		ttl:      cfg.TTL,
		maxBytes: cfg.MaxObjectBytes,
	}
}

// GetOrLoad 命中时返回缓存内容，否则调用 load 并在大小允许时写入缓存.
func (c *BlobCache) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	l := log.Ctx(ctx)

	data, err := c.store.Get(ctx, keyPrefix+key)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return data, nil
	case errors.Is(err, kv.ErrNotFound):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		l.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	data, err = load(ctx)
	if err != nil {
		return nil, err
	}

	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return data, nil
	}

	if err := c.store.Set(ctx, keyPrefix+key, data, c.ttl); err != nil {
		l.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return data, nil
}

// Close 关闭底层存储.
func (c *BlobCache) Close() error {
	return c.store.Close()
}
