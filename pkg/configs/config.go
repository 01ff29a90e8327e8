// Package configs 管理应用程序配置，包括数据库、对象存储、缓存、标签识别服务和消息队列的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv），并支持通过环境变量覆盖.
//
// 配置以值的形式返回并显式传递给各组件，包内不保存全局配置实例.
//
// Example:
//
//	cfg, v, err := configs.Load("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(cfg.Server.Port)
//	fmt.Println(cfg.DB.GetDSN())
//	fmt.Println(cfg.S3.GetEndpointURL())
//	fmt.Println(v.ConfigFileUsed())
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/photovault/pkg/rule"
)

// EnvPrefix 环境变量前缀，例如 PHOTOVAULT_DB_HOST.
const EnvPrefix = "PHOTOVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig HTTP 服务配置
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 元数据库配置
		S3             S3Config             `mapstructure:"s3"`              // S3Config 对象存储配置
		Cache          CacheConfig          `mapstructure:"cache"`           // CacheConfig 对象内容缓存
		Detector       DetectorConfig       `mapstructure:"detector"`        // DetectorConfig 标签识别服务配置
		Retry          RetryConfig          `mapstructure:"retry"`           // RetryConfig 重试策略
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件发布开关
		Jobs           JobsConfig           `mapstructure:"jobs"`            // JobsConfig 定时任务
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控配置
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪配置
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流配置
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断配置
		Client         ClientConfig         `mapstructure:"client"`          // ClientConfig 命令行客户端配置
	}
)

// Load 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv).
// path 可以是配置文件，也可以是包含 config.* 的目录；找不到配置文件时使用默认值与环境变量.
func Load(path string) (*AppConfig, *viper.Viper, error) {
	v := viper.New()
	// 设置默认值
	setAllDefaults(v)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		v.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				v.SetConfigFile(cfg)

				break
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, v, nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		serverConfig   ServerConfig
		dbConfig       DBConfig
		s3Config       S3Config
		cacheConfig    CacheConfig
		detectorConfig DetectorConfig
		retryConfig    RetryConfig
		mqConfig       MQConfig
		eventsConfig   EventsConfig
		jobsConfig     JobsConfig
		logConfig      LogConfig
		metricsConfig  MetricsConfig
		tracingConfig  TracingConfig
		rateLimit      RateLimitConfig
		breaker        CircuitBreakerConfig
		clientConfig   ClientConfig
	)

	serverConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	s3Config.setDefaults(v)
	cacheConfig.setDefaults(v)
	detectorConfig.setDefaults(v)
	retryConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	jobsConfig.setDefaults(v)
	logConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimit.setDefaults(v)
	breaker.setDefaults(v)
	clientConfig.setDefaults(v)
}

// WatchLogLevel 在配置文件变化时回调新的日志级别.
// 其余配置项只在启动时读取，变更需要重启进程.
func WatchLogLevel(v *viper.Viper, apply func(level string)) {
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var logCfg LogConfig
		if err := v.UnmarshalKey("log", &logCfg); err != nil {
			fmt.Fprintf(os.Stderr, "reload config %s: %v\n", e.Name, err)
			return
		}

		apply(logCfg.Level)
	})
	v.WatchConfig()
}

// redactedValue 替换敏感配置项的占位符.
const redactedValue = "******"

// Redacted 返回隐去密码与密钥的配置副本，用于打印或输出到日志.
func (c AppConfig) Redacted() AppConfig {
	mask := func(s *string) {
		if *s != "" {
			*s = redactedValue
		}
	}

	mask(&c.DB.Password)
	mask(&c.S3.SecretAccessKey)
	mask(&c.Detector.SecretAccessKey)
	mask(&c.Cache.Redis.Password)
	mask(&c.Cache.NATS.Password)
	mask(&c.MQ.NATS.Password)
	mask(&c.MQ.NATS.JWT)
	mask(&c.MQ.NATS.NKey)
	mask(&c.MQ.Redis.Password)

	return c
}
