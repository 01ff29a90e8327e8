package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultClientBaseURL = "http://localhost:8080"
	DefaultClientTimeout = 60 * time.Second
)

// ClientConfig 命令行客户端访问 photovault 服务的配置.
// 重试策略复用 retry 配置段.
type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url" rule:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c *ClientConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("client.base_url", DefaultClientBaseURL)
	v.SetDefault("client.timeout", DefaultClientTimeout)
}
