// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/scheduler"
)

// OrphanSweeper 清理没有资产记录引用的对象.
type OrphanSweeper interface {
	SweepOrphans(ctx context.Context, minAge time.Duration) (service.SweepResult, error)
}

// RegisterCronJobs 按配置注册业务定时任务：
//   - orphan_sweep: 按 cron 表达式清理早于 min_age 的孤儿对象（默认关闭）
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, cfg configs.JobsConfig, sweeper OrphanSweeper) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if cfg.OrphanSweep.Enabled {
		if sweeper == nil {
			return fmt.Errorf("orphan sweeper is nil")
		}

		minAge := cfg.OrphanSweep.MinAge

		err := sched.AddCron(ctx, JobOrphanSweep, cfg.OrphanSweep.Cron, func(ctx context.Context) error {
			return runOrphanSweep(ctx, sweeper, minAge)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// runOrphanSweep 执行一次孤儿对象清理.
func runOrphanSweep(ctx context.Context, sweeper OrphanSweeper, minAge time.Duration) error {
	l := log.Ctx(ctx).With().Str("job", JobOrphanSweep).Logger()

	start := time.Now()

	res, err := sweeper.SweepOrphans(ctx, minAge)
	if err != nil {
		return fmt.Errorf("sweep orphans: %w", err)
	}

	l.Info().
		Int("scanned", res.Scanned).
		Int("deleted", len(res.Deleted)).
		Dur("min_age", minAge).
		Dur("took", time.Since(start)).
		Msg("orphan sweep done")

	return nil
}
