package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Prometheus 指标配置.
// Endpoint 为独立的指标服务监听地址；留空时 /metrics 挂在主 HTTP 服务上.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`         // 是否启用Metrics
	Namespace      string `mapstructure:"namespace"`       // 指标命名空间
	Endpoint       string `mapstructure:"endpoint"`        // 独立指标服务地址
	Path           string `mapstructure:"path"`            // 指标路径
	RuntimeMetrics bool   `mapstructure:"runtime_metrics"` // 是否收集 Go 运行时与进程指标
	DBMetrics      bool   `mapstructure:"db_metrics"`      // 是否启用 gorm prometheus 插件
	MQMetrics      bool   `mapstructure:"mq_metrics"`      // 是否装饰 watermill publisher
	Pprof          bool   `mapstructure:"pprof"`           // 是否在指标服务上暴露 pprof
}

// setDefaults 设置Metrics配置的默认值.
func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", AppName)
	v.SetDefault("metrics.endpoint", "")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.db_metrics", false)
	v.SetDefault("metrics.mq_metrics", false)
	v.SetDefault("metrics.pprof", false)
}
