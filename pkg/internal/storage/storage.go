// Package storage 聚合 photovault 依赖的外部资源：元数据库、对象存储、对象缓存、识别服务和消息队列.
//
//	mgr, err := storage.Init(ctx, cfg, storage.Options{})
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/photovault/pkg/cache"
	"github.com/yeisme/photovault/pkg/configs"
	dbc "github.com/yeisme/photovault/pkg/internal/storage/db"
	"github.com/yeisme/photovault/pkg/internal/storage/detector"
	"github.com/yeisme/photovault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/photovault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/photovault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/photovault/pkg/log"
)

// Manager 聚合所有存储资源. MQ 在事件关闭时为 nil，Cache 在缓存关闭时为 nil.
type Manager struct {
	DB       *dbc.Client
	S3       *s3c.Client
	Cache    *cache.BlobCache
	Detector detector.Detector
	MQ       *mqc.Client
}

// Options 控制 Init 的可选行为.
type Options struct {
	// Registry 非空时为数据库与消息队列注册 Prometheus 指标.
	Registry prometheus.Registerer
	// SkipObjectStore 只初始化元数据库，供 db 子命令使用.
	SkipObjectStore bool
}

// Init 按配置依次初始化各存储资源，任一失败时关闭已打开的资源.
func Init(ctx context.Context, cfg *configs.AppConfig, opts Options) (*Manager, error) {
	m := &Manager{}

	dbi, err := dbc.New(ctx, cfg.DB, dbc.Options{Metrics: opts.Registry != nil && cfg.Metrics.DBMetrics})
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	m.DB = dbi

	if opts.SkipObjectStore {
		return m, nil
	}

	if m.S3, err = s3c.New(ctx, cfg.S3); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init s3: %w", err)
	}

	if cfg.Cache.Enabled {
		store, err := kv.New(ctx, cfg.Cache)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init cache: %w", err)
		}

		m.Cache = cache.New(store, cfg.Cache)
	}

	if m.Detector, err = detector.New(ctx, cfg.Detector); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("init detector: %w", err)
	}

	if cfg.Events.Enabled {
		mqOpts := mqc.Options{Namespace: cfg.Metrics.Namespace}
		if cfg.Metrics.MQMetrics {
			mqOpts.Registry = opts.Registry
		}

		if m.MQ, err = mqc.New(ctx, cfg.MQ, mqOpts); err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init mq: %w", err)
		}
	}

	nlog.Logger().Info().
		Str("detector", string(cfg.Detector.Type)).
		Bool("cache", cfg.Cache.Enabled).
		Bool("events", cfg.Events.Enabled).
		Msg("storage manager initialized")

	return m, nil
}

// Close 释放所有已初始化的资源.
func (m *Manager) Close() error {
	var errList []error

	if m.MQ != nil {
		errList = append(errList, m.MQ.Close())
	}

	if m.Cache != nil {
		errList = append(errList, m.Cache.Close())
	}

	if m.DB != nil {
		errList = append(errList, m.DB.Close())
	}

	return errors.Join(errList...)
}
