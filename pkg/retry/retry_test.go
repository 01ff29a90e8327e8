package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, MinWait: time.Millisecond, MaxWait: 4 * time.Millisecond, Multiplier: 2}
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	calls := 0

	got, err := retry.Do(context.Background(), fastPolicy(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errs.Transient("op", errors.New("unavailable"))
		}

		return 42, nil
	}, errs.IsTransient)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != 42 || calls != 3 {
		t.Fatalf("got %d after %d calls, want 42 after 3", got, calls)
	}
}

func TestDoReturnsLastErrorUnchanged(t *testing.T) {
	calls := 0
	last := errs.Transient("op", errors.New("third"))

	_, err := retry.Do(context.Background(), fastPolicy(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 3 {
			return "", last
		}

		return "", errs.Transient("op", errors.New("earlier"))
	}, errs.IsTransient)

	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}

	if err != last {
		t.Fatalf("expected the identical last error, got %v", err)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	perm := errs.Validation("op", "no such userid")

	err := retry.DoErr(context.Background(), fastPolicy(), func(ctx context.Context) error {
		calls++

		return perm
	}, errs.IsTransient)

	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}

	if err != perm {
		t.Fatalf("expected the identical error, got %v", err)
	}
}

func TestDoSingleAttemptPermanentIsUnwrapped(t *testing.T) {
	perm := errors.New("bad request")
	p := fastPolicy()
	p.Attempts = 1

	err := retry.DoErr(context.Background(), p, func(ctx context.Context) error {
		return perm
	}, errs.IsTransient)

	if err != perm {
		t.Fatalf("expected the identical error, got %#v", err)
	}
}

func TestDoNotify(t *testing.T) {
	var attempts []int

	var waits []time.Duration

	_ = retry.DoErr(context.Background(), fastPolicy(), func(ctx context.Context) error {
		return errs.Transient("op", errors.New("down"))
	}, nil, retry.WithNotify(func(err error, wait time.Duration, attempt int) {
		attempts = append(attempts, attempt)
		waits = append(waits, wait)
	}))

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Fatalf("unexpected notify attempts %v", attempts)
	}

	if waits[0] != time.Millisecond || waits[1] != 2*time.Millisecond {
		t.Fatalf("unexpected waits %v", waits)
	}
}

func TestDoHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retry.Policy{Attempts: 5, MinWait: time.Hour, MaxWait: time.Hour, Multiplier: 1}
	calls := 0

	done := make(chan error, 1)

	go func() {
		done <- retry.DoErr(ctx, p, func(ctx context.Context) error {
			calls++

			return errs.Transient("op", errors.New("down"))
		}, errs.IsTransient)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not stop after cancellation")
	}

	if calls != 1 {
		t.Fatalf("expected 1 attempt before cancellation, got %d", calls)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := retry.DefaultPolicy()
	if p.Attempts != 3 || p.MinWait != 2*time.Second || p.MaxWait != 30*time.Second {
		t.Fatalf("unexpected default policy %+v", p)
	}
}
