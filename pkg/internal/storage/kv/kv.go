// Package kv 提供对象内容缓存使用的键值存储接口和实现.
//
// 支持的类型：
//   - memory（进程内）
//   - redis
//   - nats（JetStream KV）
//   - groupcache（进程内 LRU，可配置对等节点）
package kv

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/yeisme/photovault/pkg/configs"
)

// ErrNotFound 键不存在或已过期.
var ErrNotFound = errors.New("kv: key not found")

// Store 定义键值存储接口.
type Store interface {
	// Get 获取键的值，不存在时返回 ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，ttl 为 0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除键.
	Delete(ctx context.Context, key string) error
	// Close 关闭存储连接.
	Close() error
}

// Factory 定义创建 Store 的工厂函数类型.
type Factory func(ctx context.Context, cfg configs.CacheConfig) (Store, error)

// factories 存储类型到工厂的映射.
var factories = make(map[configs.CacheType]Factory)

// RegisterFactory 注册工厂函数.
func RegisterFactory(t configs.CacheType, factory Factory) {
	factories[t] = factory
}

// RegisteredTypes 返回已注册的类型，按名称排序.
func RegisteredTypes() []configs.CacheType {
	return slices.Sorted(maps.Keys(factories))
}

// New 根据配置创建 Store 实例.
func New(ctx context.Context, cfg configs.CacheConfig) (Store, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}

	return factory(ctx, cfg)
}
