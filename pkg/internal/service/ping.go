package service

import (
	"context"

	"github.com/yeisme/photovault/pkg/metrics"
)

const pipelinePing = "ping"

// PingSlot 健康检查中一个依赖的结果：Err 为空时 Count 有效.
type PingSlot struct {
	Count int64
	Err   string
}

// OK 判断该依赖是否可用.
func (p PingSlot) OK() bool { return p.Err == "" }

// PingResult M 为桶中对象数，N 为 users 表行数.
type PingResult struct {
	M PingSlot
	N PingSlot
}

// Ping 分别统计对象数与用户数. 两次调用各自重试、各自处理错误，
// 一个依赖不可用不影响另一个的结果，因此 Ping 从不返回错误.
func (s *AssetService) Ping(ctx context.Context) PingResult {
	return PingResult{
		M: s.pingSlot(ctx, "countObjects", "object_store", s.objects.Count),
		N: s.pingSlot(ctx, "countUsers", "metadata_store", s.meta.CountUsers),
	}
}

func (s *AssetService) pingSlot(ctx context.Context, name, dependency string, count func(context.Context) (int64, error)) PingSlot {
	n, err := step(ctx, s, pipelinePing, name, count)
	if err != nil {
		metrics.DependencyUp.WithLabelValues(dependency).Set(0)
		return PingSlot{Err: err.Error()}
	}

	metrics.DependencyUp.WithLabelValues(dependency).Set(1)

	return PingSlot{Count: n}
}
