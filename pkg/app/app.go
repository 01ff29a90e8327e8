// Package app 组装 photovault 服务：配置、日志、追踪、指标、存储、编排服务、HTTP 与定时任务.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/internal/handle"
	"github.com/yeisme/photovault/pkg/internal/jobs"
	"github.com/yeisme/photovault/pkg/internal/router"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/internal/storage"
	"github.com/yeisme/photovault/pkg/internal/storage/kv"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/metrics"
	"github.com/yeisme/photovault/pkg/middleware"
	"github.com/yeisme/photovault/pkg/retry"
	"github.com/yeisme/photovault/pkg/scheduler"
	"github.com/yeisme/photovault/pkg/tracing"
)

// App 持有运行中服务的全部资源.
type App struct {
	Engine *gin.Engine

	config          *configs.AppConfig
	storage         *storage.Manager
	scheduler       *scheduler.Scheduler
	shutdownTracing tracing.ShutdownFunc
}

// New 按配置初始化全部组件. 任一步失败时释放已初始化的资源.
func New(ctx context.Context, cfg *configs.AppConfig, v *viper.Viper) (*App, error) {
	log.Init(cfg.Log, cfg.Server.Debug)

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if cfg.Server.ReloadConfig {
		configs.WatchLogLevel(v, log.SetLevel)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	metrics.Init(cfg.Metrics)

	a := &App{config: cfg, shutdownTracing: shutdownTracing}

	opts := storage.Options{}
	if cfg.Metrics.Enabled {
		opts.Registry = metrics.GetRegistry()
	}

	if a.storage, err = storage.Init(ctx, cfg, opts); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	deps := service.Deps{
		Meta:     a.storage.DB,
		Objects:  a.storage.S3,
		Detector: a.storage.Detector,
	}
	if a.storage.MQ != nil {
		deps.Events = a.storage.MQ.Publisher()
	}

	if a.storage.Cache != nil {
		deps.Cache = a.storage.Cache
	}

	svc := service.New(deps, retry.FromConfig(cfg.Retry), service.Options{Producer: cfg.Events.Producer})

	if a.scheduler, err = scheduler.New(*l); err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(ctx, a.scheduler, cfg.Jobs, svc); err != nil {
		_ = a.scheduler.Shutdown()
		_ = a.Close(ctx)
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	a.Engine = NewEngine(cfg, handle.NewAssetHandlers(svc), a.scheduler)

	gc := cfg.Cache.Groupcache
	if cfg.Cache.Enabled && cfg.Cache.Type == configs.CacheGroupcache && len(gc.Peers) > 0 {
		a.Engine.Any("/_groupcache/*path", gin.WrapH(kv.NewPeerPool(gc)))
	}

	return a, nil
}

// NewEngine 创建带默认中间件与全部路由的 gin 引擎.
// 指标未配置独立端口时 /metrics 挂在该引擎上.
func NewEngine(cfg *configs.AppConfig, h router.AssetHandlers, sched *scheduler.Scheduler) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.Default(cfg)...)

	root := engine.Group("")
	router.RegisterHealthCheckRoutes(root, h)
	router.RegisterSchedulerRoutes(root, sched)
	router.Register(root, h)
	router.RegisterSwaggerRoute(engine, cfg.Server)

	if cfg.Metrics.Endpoint == "" {
		metrics.Register(engine, cfg.Metrics)
	}

	return engine
}

// Run 启动 HTTP 服务、独立指标服务与定时任务，ctx 取消后在 shutdown_timeout 内优雅退出.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	servers := []*http.Server{{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.config.Server.GetTimeoutDuration(),
		WriteTimeout:      a.config.Server.GetTimeoutDuration(),
	}}

	if ms := metrics.NewServer(a.config.Metrics); ms != nil {
		servers = append(servers, ms)
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range servers {
		g.Go(func() error {
			l.Info().Str("addr", srv.Addr).Msg("http server listening")

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}

			return nil
		})
	}

	a.scheduler.Start()

	g.Go(func() error {
		<-gctx.Done()

		timeout := time.Duration(a.config.Server.ShutdownTimeout) * time.Second

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		l.Info().Dur("timeout", timeout).Msg("shutting down")

		var errList []error
		for _, srv := range servers {
			errList = append(errList, srv.Shutdown(shutdownCtx))
		}

		errList = append(errList, a.scheduler.Shutdown())

		return errors.Join(errList...)
	})

	return g.Wait()
}

// Close 释放存储连接并刷新未导出的 span.
func (a *App) Close(ctx context.Context) error {
	var errList []error

	if a.storage != nil {
		errList = append(errList, a.storage.Close())
	}

	if a.shutdownTracing != nil {
		errList = append(errList, a.shutdownTracing(ctx))
	}

	return errors.Join(errList...)
}
