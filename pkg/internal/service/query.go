package service

import (
	"context"

	"github.com/yeisme/photovault/pkg/errs"
	"github.com/yeisme/photovault/pkg/internal/model"
)

const pipelineQuery = "query"

// DownloadResult 图片资产及其内容.
type DownloadResult struct {
	Asset model.Asset
	Data  []byte
}

// ListUsers 返回全部用户，按 userid 排序.
func (s *AssetService) ListUsers(ctx context.Context) ([]model.User, error) {
	return step(ctx, s, pipelineQuery, "listUsers", s.meta.ListUsers)
}

// ListAssets 返回资产列表，按 assetid 排序. userID 非空时只返回该用户的资产，未知用户得到空列表.
func (s *AssetService) ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error) {
	return step(ctx, s, pipelineQuery, "listAssets", func(ctx context.Context) ([]model.Asset, error) {
		return s.meta.ListAssets(ctx, userID)
	})
}

// Download 读取资产记录与对象内容. 配置了缓存时对象内容按 bucketkey 读穿缓存.
func (s *AssetService) Download(ctx context.Context, assetID int64) (DownloadResult, error) {
	type found struct {
		asset model.Asset
		ok    bool
	}

	f, err := step(ctx, s, pipelineQuery, "getAsset", func(ctx context.Context) (found, error) {
		a, ok, err := s.meta.GetAsset(ctx, assetID)
		return found{asset: a, ok: ok}, err
	})
	if err != nil {
		return DownloadResult{}, err
	}

	if !f.ok {
		return DownloadResult{}, errs.Validation("download.getAsset", "no such assetid")
	}

	getBlob := func(ctx context.Context) ([]byte, error) {
		return step(ctx, s, pipelineQuery, "getBlob", func(ctx context.Context) ([]byte, error) {
			return s.objects.Get(ctx, f.asset.BucketKey)
		})
	}

	var data []byte
	if s.cache != nil {
		data, err = s.cache.GetOrLoad(ctx, f.asset.BucketKey, getBlob)
	} else {
		data, err = getBlob(ctx)
	}

	if err != nil {
		return DownloadResult{}, err
	}

	return DownloadResult{Asset: f.asset, Data: data}, nil
}

// GetLabels 返回资产的标签，按标签文本排序. 资产不存在时返回 Validation 错误，
// 存在但没有标签时返回空切片.
func (s *AssetService) GetLabels(ctx context.Context, assetID int64) ([]model.Label, error) {
	exists, err := step(ctx, s, pipelineQuery, "assetExists", func(ctx context.Context) (bool, error) {
		return s.meta.AssetExists(ctx, assetID)
	})
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, errs.Validation("getLabels.assetExists", "no such assetid")
	}

	labels, err := step(ctx, s, pipelineQuery, "listLabels", func(ctx context.Context) ([]model.Label, error) {
		return s.meta.ListLabels(ctx, assetID)
	})
	if err != nil {
		return nil, err
	}

	if labels == nil {
		labels = []model.Label{}
	}

	return labels, nil
}

// SearchByLabel 按子串不区分大小写查找标签，按 assetid、标签文本排序.
func (s *AssetService) SearchByLabel(ctx context.Context, pattern string) ([]model.Label, error) {
	labels, err := step(ctx, s, pipelineQuery, "searchLabels", func(ctx context.Context) ([]model.Label, error) {
		return s.meta.SearchLabels(ctx, pattern)
	})
	if err != nil {
		return nil, err
	}

	if labels == nil {
		labels = []model.Label{}
	}

	return labels, nil
}
