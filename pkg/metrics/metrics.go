// Package metrics 提供 Prometheus 指标：HTTP 请求、流水线步骤耗时与重试、健康检查可用性.
//
//	metrics.Init(cfg.Metrics)
//	metrics.StepDuration.WithLabelValues("upload", "putBlob", "ok").Observe(0.1)
package metrics

import (
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/photovault/pkg/configs"
)

// 全局指标变量. 未调用 Init 时同样可以安全使用，只是不会被导出.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// StepDuration 流水线步骤耗时，outcome 为 ok 或 error.
	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_step_duration_seconds",
			Help:    "Duration of each orchestration step including retries",
			Buckets: []float64{.005, .025, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"pipeline", "step", "outcome"},
	)

	// StepRetries 外部调用的重试次数.
	StepRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_step_retries_total",
			Help: "Number of retries performed per step",
		},
		[]string{"step"},
	)

	// LabelFailures 上传成功但标签识别失败的次数.
	LabelFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_label_failures_total",
			Help: "Uploads stored without labels because detection or label storage failed",
		},
	)

	// DependencyUp 最近一次 ping 时依赖是否可用，dependency 为 object_store 或 metadata_store.
	DependencyUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_up",
			Help: "Whether the dependency answered the last health check",
		},
		[]string{"dependency"},
	)

	// OrphansDeleted 孤儿对象清理删除的对象数.
	OrphansDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orphan_blobs_deleted_total",
			Help: "Blobs removed by the orphan sweeper",
		},
	)

	// CacheLookups 对象内容缓存查询次数，result 为 hit、miss 或 error.
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blob_cache_lookups_total",
			Help: "Blob cache lookups by result",
		},
		[]string{"result"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// Init 注册全部指标，重复调用只生效一次.
func Init(config configs.MetricsConfig) {
	if !config.Enabled {
		return
	}

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(
			RequestCounter, RequestDuration,
			StepDuration, StepRetries, LabelFailures, DependencyUp, OrphansDeleted, CacheLookups,
		)
	})
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Handler 返回导出注册表的 HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// Register 在 gin 引擎上挂载指标路径，可选挂载 pprof.
func Register(engine *gin.Engine, config configs.MetricsConfig) {
	if !config.Enabled {
		return
	}

	engine.GET(config.Path, gin.WrapH(Handler()))

	if config.Pprof {
		pp := engine.Group("/debug/pprof")
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
		pp.GET("/:name", func(c *gin.Context) {
			pprof.Handler(c.Param("name")).ServeHTTP(c.Writer, c.Request)
		})
	}
}

// NewServer 为独立的指标端口创建 gin 引擎；Endpoint 为空时返回 nil.
func NewServer(config configs.MetricsConfig) *http.Server {
	if !config.Enabled || config.Endpoint == "" {
		return nil
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	Register(engine, config)

	return &http.Server{Addr: config.Endpoint, Handler: engine}
}
