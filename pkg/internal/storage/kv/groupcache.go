package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/photovault/pkg/configs"
)

// GroupcacheKV 基于 Groupcache 的 KV 实现.
//
// Set 写入本地暂存区，Get 通过 groupcache 读取：先询问拥有该键的对等节点，失败时由本地 getter
// 从暂存区加载，之后由 groupcache 的 LRU 持有. groupcache 不支持删除与过期，只适合内容不变的键.
type GroupcacheKV struct {
	group *groupcache.Group

	mu      sync.Mutex
	staged  map[string][]byte
	size    int64
	maxSize int64
}

// NewGroupcacheKV 创建 Groupcache KV 实例. 同一进程内 group 名称必须唯一.
func NewGroupcacheKV(_ context.Context, cfg configs.CacheConfig) (Store, error) {
	gc := cfg.Groupcache
	if gc.Name == "" || gc.CacheBytes <= 0 {
		return nil, fmt.Errorf("invalid groupcache config: name %q, cache_bytes %d", gc.Name, gc.CacheBytes)
	}

	if groupcache.GetGroup(gc.Name) != nil {
		return nil, fmt.Errorf("groupcache group %q already exists", gc.Name)
	}

	kv := &GroupcacheKV{
		staged:  make(map[string][]byte),
		maxSize: gc.CacheBytes,
	}
	kv.group = groupcache.NewGroup(gc.Name, gc.CacheBytes, groupcache.GetterFunc(kv.load))

	return kv, nil
}

// load 是 groupcache 的 getter，从本地暂存区取值并移出暂存区.
func (g *GroupcacheKV) load(_ context.Context, key string, dest groupcache.Sink) error {
	g.mu.Lock()
	value, ok := g.staged[key]
	if ok {
		delete(g.staged, key)
		g.size -= int64(len(value))
	}
	g.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	return dest.SetBytes(value)
}

// Get 获取键的值.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	return data, nil
}

// Set 暂存键的值，下一次 Get 时进入 groupcache. 暂存区超过 cache_bytes 时丢弃.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.staged[key]; ok {
		g.size -= int64(len(old))
	}

	if g.size+int64(len(value)) > g.maxSize {
		return nil
	}

	g.staged[key] = clone(value)
	g.size += int64(len(value))

	return nil
}

// Delete 只能删除暂存区中的键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.staged[key]; ok {
		g.size -= int64(len(old))
		delete(g.staged, key)
	}

	return nil
}

// Close Groupcache 没有显式的关闭方法.
func (g *GroupcacheKV) Close() error {
	return nil
}

// NewPeerPool 创建 groupcache 对等节点池，返回的 handler 需要挂载在 /_groupcache/ 路径上.
// 每个进程只能调用一次.
func NewPeerPool(cfg configs.GroupcacheCacheConfig) *groupcache.HTTPPool {
	pool := groupcache.NewHTTPPoolOpts(cfg.Self, &groupcache.HTTPPoolOptions{})
	pool.Set(cfg.Peers...)

	return pool
}

func init() {
	RegisterFactory(configs.CacheGroupcache, NewGroupcacheKV)
}
