package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultOrphanSweepCron   = "0 3 * * *" // 每天 03:00
	DefaultOrphanSweepMinAge = 24 * time.Hour
)

// JobsConfig 定时任务配置.
type JobsConfig struct {
	OrphanSweep OrphanSweepConfig `mapstructure:"orphan_sweep"`
}

// OrphanSweepConfig 孤儿对象清理任务配置.
// MinAge 之内的对象不会被删除，避免误删正在上传流程中的对象.
type OrphanSweepConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Cron    string        `mapstructure:"cron"    rule:"required"`
	MinAge  time.Duration `mapstructure:"min_age" rule:"min=0"`
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.orphan_sweep.enabled", false)
	v.SetDefault("jobs.orphan_sweep.cron", DefaultOrphanSweepCron)
	v.SetDefault("jobs.orphan_sweep.min_age", DefaultOrphanSweepMinAge)
}
