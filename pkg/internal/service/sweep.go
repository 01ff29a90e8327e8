package service

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/metrics"
	"github.com/yeisme/photovault/pkg/queue"
)

const pipelineSweep = "sweepOrphans"

// SweepResult 孤儿对象清理结果.
type SweepResult struct {
	Scanned int
	Deleted []string
	Failed  []string
}

// SweepOrphans 删除桶中没有资产记录引用、且最后修改时间早于 minAge 之前的对象.
// 先列举对象再读取对象键，minAge 保护正处于上传第 2、3 步之间的对象.
func (s *AssetService) SweepOrphans(ctx context.Context, minAge time.Duration) (SweepResult, error) {
	logger := log.Ctx(ctx).With().Str("pipeline", pipelineSweep).Logger()

	blobs, err := step(ctx, s, pipelineSweep, "listBlobs", s.objects.List)
	if err != nil {
		return SweepResult{}, err
	}

	keys, err := step(ctx, s, pipelineSweep, "readBucketKeys", s.meta.BucketKeys)
	if err != nil {
		return SweepResult{}, err
	}

	known := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		known[k] = struct{}{}
	}

	cutoff := time.Now().Add(-minAge)

	var orphans []string

	for _, b := range blobs {
		if _, ok := known[b.Key]; ok {
			continue
		}

		if b.LastModified.After(cutoff) {
			continue
		}

		orphans = append(orphans, b.Key)
	}

	result := SweepResult{Scanned: len(blobs)}
	if len(orphans) == 0 {
		logger.Info().Int("scanned", result.Scanned).Msg("no orphan blobs")
		return result, nil
	}

	pending := orphans

	err = stepErr(ctx, s, pipelineSweep, "deleteOrphans", func(ctx context.Context) error {
		failed, err := s.objects.DeleteBatch(ctx, pending)
		if len(failed) > 0 {
			pending = failed
		}

		return err
	})

	if err != nil {
		result.Failed = pending
		err = errs.Partial("sweepOrphans.deleteOrphans", err, "%d of %d orphan blobs could not be deleted", len(pending), len(orphans))
	}

	failed := make(map[string]struct{}, len(result.Failed))
	for _, k := range result.Failed {
		failed[k] = struct{}{}
	}

	for _, k := range orphans {
		if _, ok := failed[k]; !ok {
			result.Deleted = append(result.Deleted, k)
		}
	}

	metrics.OrphansDeleted.Add(float64(len(result.Deleted)))

	s.emit(ctx, queue.TopicOrphansSwept, func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
		return queue.PublishOrphansSwept(pub, queue.OrphansSweptPayload{
			Scanned: result.Scanned,
			Deleted: result.Deleted,
			Failed:  result.Failed,
		}, opts...)
	})

	logger.Info().
		Int("scanned", result.Scanned).
		Int("deleted", len(result.Deleted)).
		Int("failed", len(result.Failed)).
		Msg("orphan blobs swept")

	return result, err
}
