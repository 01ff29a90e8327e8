package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/log"
	"github.com/yeisme/photovault/pkg/metrics"
	"github.com/yeisme/photovault/pkg/queue"
	"github.com/yeisme/photovault/pkg/rule"
)

const pipelineUpload = "upload"

// LabelStatus 上传后标签识别的结果.
type LabelStatus string

const (
	LabelsStored LabelStatus = "stored" // 标签已写入（可能为零个）
	LabelsFailed LabelStatus = "failed" // 识别或写入失败，资产已保存但没有标签
)

// UploadResult 上传结果. LabelStatus 为 failed 时资产依然有效，只是没有标签.
type UploadResult struct {
	AssetID     int64
	BucketKey   string
	LabelStatus LabelStatus
	LabelCount  int
	LabelError  string
}

// UploadFile 读取本地文件并上传，localname 取文件名部分.
func (s *AssetService) UploadFile(ctx context.Context, userID int64, path string) (UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return UploadResult{}, errs.Validation("upload.readFile", "no such local file %q", path)
		}

		return UploadResult{}, fmt.Errorf("read %s: %w", path, err)
	}

	return s.Upload(ctx, userID, filepath.Base(path), data)
}

// Upload 上传一张图片：
//
//  1. 查询 userid 对应的用户名
//  2. 以 <username>/<uuid>-<localname> 为键写入对象存储
//  3. 在一个事务中插入资产记录
//  4. 按对象键反查新资产的编号
//  5. 识别标签并在一个事务中写入
//
// 第 2 步之后的失败不会回滚已写入的对象（孤儿对象是允许的）.
// 第 3 步重试前先按对象键检查记录是否已经写入，避免重复插入.
// 第 5 步失败时仍返回资产编号，LabelStatus 为 failed.
func (s *AssetService) Upload(ctx context.Context, userID int64, localName string, data []byte) (UploadResult, error) {
	if err := rule.ValidateVar(localName, "required,localname"); err != nil {
		return UploadResult{}, errs.Validation("upload", "invalid local filename %q", localName)
	}

	logger := log.Ctx(ctx).With().Str("pipeline", pipelineUpload).Int64("userid", userID).Logger()

	// 1. lookupUsername
	names, err := step(ctx, s, pipelineUpload, "lookupUsername", func(ctx context.Context) ([]string, error) {
		return s.meta.LookupUsernames(ctx, userID)
	})
	if err != nil {
		return UploadResult{}, err
	}

	switch len(names) {
	case 0:
		logger.Warn().Str("step", "lookupUsername").Msg("no such userid")
		return UploadResult{}, errs.Validation("upload.lookupUsername", "no such userid")
	case 1:
	default:
		logger.Error().Str("step", "lookupUsername").Int("rows", len(names)).Msg("userid is not unique")
		return UploadResult{}, errs.Consistency("upload.lookupUsername", "userid %d matched %d users", userID, len(names))
	}

	// 2. putBlob
	key := fmt.Sprintf("%s/%s-%s", names[0], uuid.NewString(), localName)

	err = stepErr(ctx, s, pipelineUpload, "putBlob", func(ctx context.Context) error {
		return s.objects.Put(ctx, key, data)
	})
	if err != nil {
		return UploadResult{}, err
	}

	// 3. insertAsset
	attempt := 0

	err = stepErr(ctx, s, pipelineUpload, "insertAsset", func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			// 上一次提交可能已成功，只是确认在网络上丢失；对象键唯一，已存在即视为插入成功
			ids, err := s.meta.AssetIDsByBucketKey(ctx, key)
			if err != nil {
				return err
			}

			if len(ids) > 0 {
				logger.Warn().Str("step", "insertAsset").Str("bucket_key", key).Msg("asset row already committed by an earlier attempt")
				return nil
			}
		}

		return s.meta.InsertAsset(ctx, userID, localName, key)
	})
	if err != nil {
		return UploadResult{}, err
	}

	// 4. resolveAssetID
	ids, err := step(ctx, s, pipelineUpload, "resolveAssetID", func(ctx context.Context) ([]int64, error) {
		return s.meta.AssetIDsByBucketKey(ctx, key)
	})
	if err != nil {
		return UploadResult{}, err
	}

	if len(ids) != 1 {
		logger.Error().Str("step", "resolveAssetID").Str("bucket_key", key).Int("rows", len(ids)).Msg("bucket key does not resolve to one asset")
		return UploadResult{}, errs.Consistency("upload.resolveAssetID", "bucket key %q matched %d assets", key, len(ids))
	}

	result := UploadResult{AssetID: ids[0], BucketKey: key}
	ref := queue.AssetRef{
		AssetID:   result.AssetID,
		UserID:    userID,
		LocalName: localName,
		Bucket:    s.objects.Bucket(),
		BucketKey: key,
	}

	s.emit(ctx, queue.TopicAssetStored, func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
		return queue.PublishAssetStored(pub, queue.AssetStoredPayload{
			Asset:       ref,
			Size:        int64(len(data)),
			ContentType: mimetype.Detect(data).String(),
		}, opts...)
	})

	// 5. detectAndStoreLabels
	labels, failedStep, err := s.detectAndStoreLabels(ctx, result.AssetID, key)
	if err != nil {
		result.LabelStatus = LabelsFailed
		result.LabelError = err.Error()

		metrics.LabelFailures.Inc()
		logger.Error().Err(err).Str("step", failedStep).Int64("assetid", result.AssetID).Msg("asset stored without labels")

		s.emit(ctx, queue.TopicAssetLabelFailed, func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
			return queue.PublishAssetLabelFailed(pub, queue.AssetLabelFailedPayload{
				Asset: ref,
				Step:  failedStep,
				Error: err.Error(),
			}, opts...)
		})

		return result, nil
	}

	result.LabelStatus = LabelsStored
	result.LabelCount = len(labels)

	s.emit(ctx, queue.TopicAssetLabeled, func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
		scores := make([]queue.LabelScore, 0, len(labels))
		for _, l := range labels {
			scores = append(scores, queue.LabelScore{Label: l.Label, Confidence: l.Confidence})
		}

		return queue.PublishAssetLabeled(pub, queue.AssetLabeledPayload{Asset: ref, Labels: scores}, opts...)
	})

	logger.Info().Int64("assetid", result.AssetID).Str("bucket_key", key).Int("labels", result.LabelCount).Msg("asset uploaded")

	return result, nil
}

// detectAndStoreLabels 识别标签并整批写入，失败时返回出错的步骤名.
func (s *AssetService) detectAndStoreLabels(ctx context.Context, assetID int64, key string) ([]model.Label, string, error) {
	detected, err := step(ctx, s, pipelineUpload, "detectLabels", func(ctx context.Context) ([]model.DetectedLabel, error) {
		return s.detector.Detect(ctx, model.BlobRef{Bucket: s.objects.Bucket(), Key: key})
	})
	if err != nil {
		return nil, "detectLabels", err
	}

	labels := toLabels(assetID, detected)

	err = stepErr(ctx, s, pipelineUpload, "insertLabels", func(ctx context.Context) error {
		return s.meta.InsertLabels(ctx, labels)
	})
	if err != nil {
		return nil, "insertLabels", err
	}

	return labels, "", nil
}

// toLabels 将识别结果转换为标签行：置信度四舍五入并限制在 0..100，
// 同名标签只保留置信度最高的一条.
func toLabels(assetID int64, detected []model.DetectedLabel) []model.Label {
	labels := make([]model.Label, 0, len(detected))
	index := make(map[string]int, len(detected))

	for _, d := range detected {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}

		conf := confidence(d.Confidence)

		if i, ok := index[name]; ok {
			labels[i].Confidence = max(labels[i].Confidence, conf)
			continue
		}

		index[name] = len(labels)
		labels = append(labels, model.Label{AssetID: assetID, Label: name, Confidence: conf})
	}

	return labels
}

func confidence(v float64) int {
	if math.IsNaN(v) {
		return 0
	}

	return int(math.Round(min(max(v, 0), 100)))
}
