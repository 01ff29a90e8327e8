// Package retry 提供访问外部服务时使用的指数退避重试.
//
// 重试只包裹单个外部调用（一次查询、一次上传、一次识别），不会包裹整条流水线；
// 非暂时性错误立即返回，重试次数用尽时原样返回最后一次的错误.
//
//	user, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
//		return store.LookupUsername(ctx, userID)
//	}, errs.IsTransient)
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yeisme/photovault/pkg/configs"
)

// Policy 重试策略. 第 n 次重试前等待 MinWait*Multiplier^(n-1)，上限 MaxWait.
type Policy struct {
	Attempts   uint
	MinWait    time.Duration
	MaxWait    time.Duration
	Multiplier float64
}

// DefaultPolicy 最多 3 次尝试，等待 2s 起指数增长，上限 30s.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   configs.DefaultRetryAttempts,
		MinWait:    configs.DefaultRetryMinWait,
		MaxWait:    configs.DefaultRetryMaxWait,
		Multiplier: configs.DefaultRetryMultiplier,
	}
}

// FromConfig 由配置构建策略，缺省字段使用默认值.
func FromConfig(cfg configs.RetryConfig) Policy {
	p := DefaultPolicy()
	if cfg.Attempts > 0 {
		p.Attempts = cfg.Attempts
	}

	if cfg.MinWait > 0 {
		p.MinWait = cfg.MinWait
	}

	if cfg.MaxWait > 0 {
		p.MaxWait = cfg.MaxWait
	}

	if cfg.Multiplier >= 1 {
		p.Multiplier = cfg.Multiplier
	}

	return p
}

// Notify 在每次重试等待前调用，attempt 为刚失败的尝试序号（从 1 开始）.
type Notify func(err error, wait time.Duration, attempt int)

// Option 调整单次 Do 调用.
type Option func(*options)

type options struct {
	notify Notify
}

// WithNotify 注册重试回调，通常用于记录日志和重试次数指标.
func WithNotify(n Notify) Option {
	return func(o *options) { o.notify = n }
}

// Do 执行 op，当 transient 判定错误可重试时按 p 退避重试.
// transient 为 nil 时所有错误都会重试.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error), transient func(error) bool, opts ...Option) (T, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++

		v, err := op(ctx)
		if err != nil && transient != nil && !transient(err) {
			return v, backoff.Permanent(err)
		}

		return v, err
	}

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(max(p.Attempts, 1)),
		backoff.WithMaxElapsedTime(0),
	}

	if o.notify != nil {
		retryOpts = append(retryOpts, backoff.WithNotify(func(err error, wait time.Duration) {
			o.notify(err, wait, attempt)
		}))
	}

	v, err := backoff.Retry(ctx, operation, retryOpts...)

	// 最后一次尝试遇到非暂时性错误时 backoff 不会拆掉 Permanent 包装.
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Unwrap()
	}

	return v, err
}

// DoErr 是 Do 的无返回值版本.
func DoErr(ctx context.Context, p Policy, op func(ctx context.Context) error, transient func(error) bool, opts ...Option) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, transient, opts...)

	return err
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.MinWait
	b.MaxInterval = p.MaxWait
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = 0

	if b.Multiplier < 1 {
		b.Multiplier = 1
	}

	return b
}
