package kv

import (
	"context"
	"sync"
	"time"

	"github.com/yeisme/photovault/pkg/configs"
)

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryKV 基于 sync.Map 的内存 KV 实现，过期的键在读取时删除.
// 值保存为 *memoryEntry，删除过期键时按指针比较，不会误删并发写入的新值.
type MemoryKV struct {
	data sync.Map
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV 实例.
func NewMemoryKV(context.Context, configs.CacheConfig) (Store, error) {
	return &MemoryKV{now: time.Now}, nil
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data.Load(key)
	if !ok {
		return nil, ErrNotFound
	}

	e, _ := v.(*memoryEntry)
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		m.data.CompareAndDelete(key, v)
		return nil, ErrNotFound
	}

	return clone(e.value), nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := &memoryEntry{value: clone(value)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.data.Store(key, e)

	return nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.data.Delete(key)
	return nil
}

// Close 内存实现无需操作.
func (m *MemoryKV) Close() error {
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)

	return out
}

func init() {
	RegisterFactory(configs.CacheMemory, NewMemoryKV)
}
