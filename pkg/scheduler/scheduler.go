// Package scheduler 提供定时任务调度功能，使用 gocron/v2 库.
package scheduler

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// JobStatus 表示任务的状态类型.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 任务已调度
	StatusRunning   JobStatus = "running"   // 任务正在运行
	StatusError     JobStatus = "error"     // 上次执行出错
)

// Task 为定时执行的任务，返回的错误会记录到 JobInfo.
type Task func(ctx context.Context) error

// JobInfo 表示定时任务的信息，用于可视化和监控.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type entry struct {
	job  gocron.Job
	info JobInfo
}

// Scheduler 包装 gocron.Scheduler，按名称管理任务并记录执行状态.
type Scheduler struct {
	scheduler gocron.Scheduler
	mu        sync.RWMutex
	entries   map[string]*entry
	logger    zerolog.Logger
}

// New 创建调度器. 同一任务不会并发执行（单例模式，重叠的触发被跳过）.
func New(logger zerolog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(gocron.WithSingletonMode(gocron.LimitModeReschedule)),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		entries:   make(map[string]*entry),
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// AddCron 添加一个基于 cron 表达式的定时任务. ctx 为任务每次执行使用的上下文.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	run := func(ctx context.Context) {
		s.setStatus(name, StatusRunning, "")

		defer func() {
			if r := recover(); r != nil {
				s.setStatus(name, StatusError, fmt.Sprintf("panic in job: %v", r))
				s.logger.Error().Str("job", name).Interface("panic", r).Msg("job panicked")
			}
		}()

		if err := task(ctx); err != nil {
			s.setStatus(name, StatusError, err.Error())
			s.logger.Error().Err(err).Str("job", name).Msg("job failed")

			return
		}

		s.markSuccess(name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(strings.TrimSpace(cronExpr), false),
		gocron.NewTask(run, ctx),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	s.entries[name] = &entry{
		job: j,
		info: JobInfo{
			ID:        j.ID().String(),
			Name:      name,
			CronExpr:  cronExpr,
			Status:    StatusScheduled,
			CreatedAt: time.Now(),
		},
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("added cron job")

	return nil
}

// RunNow 立即触发一次指定任务，不影响后续调度.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	return e.job.RunNow()
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.JobInfos())).Msg("starting scheduler")
	s.scheduler.Start()
}

// Shutdown 停止调度器并等待正在执行的任务结束.
func (s *Scheduler) Shutdown() error {
	s.logger.Info().Msg("stopping scheduler")
	return s.scheduler.Shutdown()
}

// JobInfos 返回所有定时任务的信息，按名称排序.
func (s *Scheduler) JobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.entries))
	for _, e := range s.entries {
		info := e.info
		if next, err := e.job.NextRun(); err == nil {
			info.NextRun = next
		}

		if last, err := e.job.LastRun(); err == nil {
			info.LastRun = last
		}

		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })

	return infos
}

func (s *Scheduler) setStatus(name string, status JobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		e.info.Status = status
		e.info.Error = errMsg
	}
}

func (s *Scheduler) markSuccess(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		e.info.Status = StatusScheduled
		e.info.Error = ""
		e.info.LastSuccess = time.Now()
	}
}
