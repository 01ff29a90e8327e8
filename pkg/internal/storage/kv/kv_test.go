package kv_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/internal/storage/kv"
)

func TestRegisteredTypes(t *testing.T) {
	got := kv.RegisteredTypes()
	want := []configs.CacheType{configs.CacheGroupcache, configs.CacheMemory, configs.CacheNATS, configs.CacheRedis}

	if len(got) != len(want) {
		t.Fatalf("types = %v", got)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("types = %v, want %v", got, want)
		}
	}
}

func TestUnsupportedType(t *testing.T) {
	if _, err := kv.New(context.Background(), configs.CacheConfig{Type: "etcd"}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()

	store, err := kv.New(ctx, configs.CacheConfig{Type: configs.CacheMemory})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.Get(ctx, "alice/x-a.jpg"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("get missing = %v", err)
	}

	value := []byte("jpeg")
	if err := store.Set(ctx, "alice/x-a.jpg", value, 0); err != nil {
		t.Fatal(err)
	}

	value[0] = 'X'

	got, err := store.Get(ctx, "alice/x-a.jpg")
	if err != nil || string(got) != "jpeg" {
		t.Fatalf("get = %q, %v", got, err)
	}

	if err := store.Set(ctx, "short", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}

	time.Sleep(time.Millisecond)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expired get = %v", err)
	}

	// 过期后重新写入同一个键
	if err := store.Set(ctx, "short", []byte("v2"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if got, err := store.Get(ctx, "short"); err != nil || string(got) != "v2" {
		t.Fatalf("get after re-set = %q, %v", got, err)
	}

	_ = store.Delete(ctx, "alice/x-a.jpg")

	if _, err := store.Get(ctx, "alice/x-a.jpg"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("deleted get = %v", err)
	}
}

func TestGroupcacheKV(t *testing.T) {
	ctx := context.Background()
	cfg := configs.CacheConfig{
		Type:       configs.CacheGroupcache,
		Groupcache: configs.GroupcacheCacheConfig{Name: "kv-test-blobs", CacheBytes: 16},
	}

	store, err := kv.New(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := kv.New(ctx, cfg); err == nil {
		t.Fatal("duplicate group name should fail")
	}

	if _, err := store.Get(ctx, "k1"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("get missing = %v", err)
	}

	if err := store.Set(ctx, "k1", []byte("hello"), time.Hour); err != nil {
		t.Fatal(err)
	}

	for range 2 {
		got, err := store.Get(ctx, "k1")
		if err != nil || string(got) != "hello" {
			t.Fatalf("get = %q, %v", got, err)
		}
	}

	// 超过暂存上限的值被丢弃.
	_ = store.Set(ctx, "big", make([]byte, 64), 0)

	if _, err := store.Get(ctx, "big"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("oversized get = %v", err)
	}
}
