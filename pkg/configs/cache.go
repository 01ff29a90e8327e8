package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CacheType 对象内容缓存的后端类型.
type CacheType string

const (
	CacheMemory     CacheType = "memory"
	CacheRedis      CacheType = "redis"
	CacheNATS       CacheType = "nats"
	CacheGroupcache CacheType = "groupcache"
)

const (
	DefaultCacheTTL            = time.Hour
	DefaultCacheMaxObjectBytes = 4 << 20   // 超过 4MB 的对象不进缓存
	DefaultGroupcacheBytes     = 256 << 20 // 256MB
)

// CacheConfig 下载时对象内容的读穿缓存. bucketkey 含 uuid，同一个键的内容不会改变.
type CacheConfig struct {
	Enabled        bool                  `mapstructure:"enabled"`
	Type           CacheType             `mapstructure:"type"             rule:"oneof=memory redis nats groupcache"`
	TTL            time.Duration         `mapstructure:"ttl"              rule:"min=0"`
	MaxObjectBytes int64                 `mapstructure:"max_object_bytes" rule:"min=0"`
	Redis          RedisCacheConfig      `mapstructure:"redis"`
	NATS           NATSCacheConfig       `mapstructure:"nats"`
	Groupcache     GroupcacheCacheConfig `mapstructure:"groupcache"`
}

// RedisCacheConfig Redis 缓存配置.
type RedisCacheConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// NATSCacheConfig NATS KV 缓存配置.
type NATSCacheConfig struct {
	URL      string `mapstructure:"url"      rule:"required"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"   rule:"required"`
}

// GroupcacheCacheConfig Groupcache 缓存配置. Peers 为空时只使用本进程缓存.
type GroupcacheCacheConfig struct {
	Name       string   `mapstructure:"name"        rule:"required"`
	CacheBytes int64    `mapstructure:"cache_bytes" rule:"min=1048576"` // 最小1MB
	Peers      []string `mapstructure:"peers"`
	Self       string   `mapstructure:"self"`
}

// setDefaults 设置缓存配置的默认值.
func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.type", CacheMemory)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.max_object_bytes", DefaultCacheMaxObjectBytes)

	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)

	v.SetDefault("cache.nats.url", "nats://localhost:4222")
	v.SetDefault("cache.nats.user", "")
	v.SetDefault("cache.nats.password", "")
	v.SetDefault("cache.nats.bucket", AppName+"-blobs")

	v.SetDefault("cache.groupcache.name", AppName+"-blobs")
	v.SetDefault("cache.groupcache.cache_bytes", DefaultGroupcacheBytes)
	v.SetDefault("cache.groupcache.peers", []string{})
	v.SetDefault("cache.groupcache.self", "http://localhost:8080")
}
