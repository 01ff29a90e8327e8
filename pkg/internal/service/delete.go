package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/queue"
)

const pipelineDeleteAll = "deleteAll"

// DeleteResult 清空结果. BlobsFailed 为元数据已清空但未能删除的对象键.
type DeleteResult struct {
	Assets       int64
	BlobsDeleted int
	BlobsFailed  []string
}

// DeleteAll 删除全部资产：
//
//  1. 读取元数据库中全部对象键
//  2. 在一个事务中清空 labels 与 assets 并重置资产编号
//  3. 事务提交后批量删除第 1 步读到的对象
//
// 第 1、2 步失败时没有任何改动；第 3 步失败时元数据保持已清空，返回 KindPartial 错误.
func (s *AssetService) DeleteAll(ctx context.Context) (DeleteResult, error) {
	logger := log.Ctx(ctx).With().Str("pipeline", pipelineDeleteAll).Logger()

	keys, err := step(ctx, s, pipelineDeleteAll, "readBucketKeys", func(ctx context.Context) ([]string, error) {
		return s.meta.BucketKeys(ctx)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	purged, err := step(ctx, s, pipelineDeleteAll, "purgeMetadata", func(ctx context.Context) (int64, error) {
		return s.meta.PurgeAssets(ctx)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	result := DeleteResult{Assets: purged}

	// 重试时只处理上一次未删除的键
	pending := keys

	err = stepErr(ctx, s, pipelineDeleteAll, "deleteBlobs", func(ctx context.Context) error {
		failed, err := s.objects.DeleteBatch(ctx, pending)
		if len(failed) > 0 {
			pending = failed
		}

		return err
	})

	if err != nil {
		result.BlobsFailed = pending
		err = errs.Partial("deleteAll.deleteBlobs", err,
			"metadata cleared but %d of %d blobs could not be deleted", len(pending), len(keys))
	}

	result.BlobsDeleted = len(keys) - len(result.BlobsFailed)

	s.emit(ctx, queue.TopicAssetsPurged, func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
		return queue.PublishAssetsPurged(pub, queue.AssetsPurgedPayload{
			Assets:       result.Assets,
			BlobsDeleted: result.BlobsDeleted,
			BlobsFailed:  result.BlobsFailed,
		}, opts...)
	})

	logger.Info().
		Int64("assets", result.Assets).
		Int("blobs_deleted", result.BlobsDeleted).
		Int("blobs_failed", len(result.BlobsFailed)).
		Msg("all assets deleted")

	return result, err
}
