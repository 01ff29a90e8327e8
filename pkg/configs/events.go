package configs

import "github.com/spf13/viper"

// EventsConfig 资产生命周期事件配置.
type EventsConfig struct {
	// Enabled 关闭时所有事件被丢弃，MQ 不会被初始化.
	Enabled bool `mapstructure:"enabled"`
	// Producer 写入事件头的生产者标识.
	Producer string `mapstructure:"producer"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.producer", AppName)
}
