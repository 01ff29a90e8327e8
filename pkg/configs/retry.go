package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRetryAttempts   = 3
	DefaultRetryMinWait    = 2 * time.Second
	DefaultRetryMaxWait    = 30 * time.Second
	DefaultRetryMultiplier = 2.0
)

// RetryConfig 访问外部服务时的重试策略.
type RetryConfig struct {
	Attempts   uint          `mapstructure:"attempts"   rule:"min=1,max=20"`
	MinWait    time.Duration `mapstructure:"min_wait"`
	MaxWait    time.Duration `mapstructure:"max_wait"   rule:"gtefield=MinWait"`
	Multiplier float64       `mapstructure:"multiplier" rule:"gte=1"`
}

func (c *RetryConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("retry.attempts", DefaultRetryAttempts)
	v.SetDefault("retry.min_wait", DefaultRetryMinWait)
	v.SetDefault("retry.max_wait", DefaultRetryMaxWait)
	v.SetDefault("retry.multiplier", DefaultRetryMultiplier)
}
