package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yeisme/photovault/pkg/configs"
	"github.com/yeisme/photovault/pkg/internal/jobs"
	"github.com/yeisme/photovault/pkg/internal/service"
	"github.com/yeisme/photovault/pkg/scheduler"
)

type recordingSweeper struct {
	mu     sync.Mutex
	minAge []time.Duration
	err    error
}

func (r *recordingSweeper) SweepOrphans(_ context.Context, minAge time.Duration) (service.SweepResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.minAge = append(r.minAge, minAge)

	return service.SweepResult{Scanned: 1}, r.err
}

func (r *recordingSweeper) calls() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]time.Duration(nil), r.minAge...)
}

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()

	s, err := scheduler.New(zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = s.Shutdown() })

	return s
}

func TestOrphanSweepDisabledByDefault(t *testing.T) {
	s := newScheduler(t)

	err := jobs.RegisterCronJobs(context.Background(), s, configs.JobsConfig{
		OrphanSweep: configs.OrphanSweepConfig{Cron: configs.DefaultOrphanSweepCron},
	}, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if n := len(s.JobInfos()); n != 0 {
		t.Fatalf("want no jobs, got %d", n)
	}
}

func TestOrphanSweepRuns(t *testing.T) {
	s := newScheduler(t)
	sweeper := &recordingSweeper{}

	err := jobs.RegisterCronJobs(context.Background(), s, configs.JobsConfig{
		OrphanSweep: configs.OrphanSweepConfig{Enabled: true, Cron: "0 3 * * *", MinAge: 2 * time.Hour},
	}, sweeper)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	s.Start()

	if err := s.RunNow(jobs.JobOrphanSweep); err != nil {
		t.Fatalf("run now: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(sweeper.calls()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	calls := sweeper.calls()
	if len(calls) != 1 || calls[0] != 2*time.Hour {
		t.Fatalf("want one sweep with min age 2h, got %v", calls)
	}
}

func TestOrphanSweepFailureRecorded(t *testing.T) {
	s := newScheduler(t)
	sweeper := &recordingSweeper{err: errors.New("list blobs: access denied")}

	err := jobs.RegisterCronJobs(context.Background(), s, configs.JobsConfig{
		OrphanSweep: configs.OrphanSweepConfig{Enabled: true, Cron: "0 3 * * *"},
	}, sweeper)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	s.Start()

	if err := s.RunNow(jobs.JobOrphanSweep); err != nil {
		t.Fatalf("run now: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		infos := s.JobInfos()
		if len(infos) == 1 && infos[0].Status == scheduler.StatusError {
			return
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("job error status not recorded")
}
