package db

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/photovault/pkg/internal/model"
)

// LookupUsernames 返回 userid 对应的用户名. 正常情况下最多一行，由调用方判断行数.
func (c *Client) LookupUsernames(ctx context.Context, userID int64) ([]string, error) {
	var names []string

	err := c.WithContext(ctx).
		Model(&model.User{}).
		Where("userid = ?", userID).
		Pluck("username", &names).Error

	return names, wrap("lookupUsernames", err)
}

// InsertAsset 在单个事务中插入一条资产记录.
func (c *Client) InsertAsset(ctx context.Context, userID int64, localName, bucketKey string) error {
	err := c.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		asset := model.Asset{UserID: userID, LocalName: localName, BucketKey: bucketKey}

		return tx.Omit(clause.Associations).Create(&asset).Error
	})

	return wrap("insertAsset", err)
}

// AssetIDsByBucketKey 按对象键反查资产编号.
func (c *Client) AssetIDsByBucketKey(ctx context.Context, bucketKey string) ([]int64, error) {
	var ids []int64

	err := c.WithContext(ctx).
		Model(&model.Asset{}).
		Where("bucketkey = ?", bucketKey).
		Pluck("assetid", &ids).Error

	return ids, wrap("assetIDsByBucketKey", err)
}

// InsertLabels 在单个事务中写入一张图片的全部标签.
func (c *Client) InsertLabels(ctx context.Context, labels []model.Label) error {
	if len(labels) == 0 {
		return nil
	}

	err := c.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&labels).Error
	})

	return wrap("insertLabels", err)
}

// GetAsset 按编号读取资产，不存在时 found 为 false.
func (c *Client) GetAsset(ctx context.Context, assetID int64) (model.Asset, bool, error) {
	var assets []model.Asset

	err := c.WithContext(ctx).
		Where("assetid = ?", assetID).
		Limit(1).
		Find(&assets).Error
	if err != nil {
		return model.Asset{}, false, wrap("getAsset", err)
	}

	if len(assets) == 0 {
		return model.Asset{}, false, nil
	}

	return assets[0], true, nil
}

// AssetExists 判断资产是否存在.
func (c *Client) AssetExists(ctx context.Context, assetID int64) (bool, error) {
	var n int64

	err := c.WithContext(ctx).
		Model(&model.Asset{}).
		Where("assetid = ?", assetID).
		Count(&n).Error

	return n > 0, wrap("assetExists", err)
}

// ListLabels 返回资产的标签，按标签文本排序.
func (c *Client) ListLabels(ctx context.Context, assetID int64) ([]model.Label, error) {
	labels := []model.Label{}

	err := c.WithContext(ctx).
		Where("assetid = ?", assetID).
		Order("label ASC").
		Find(&labels).Error

	return labels, wrap("listLabels", err)
}

// SearchLabels 按子串不区分大小写匹配标签，按资产编号和标签排序.
// pattern 中的 % 与 _ 按字面量处理.
func (c *Client) SearchLabels(ctx context.Context, pattern string) ([]model.Label, error) {
	labels := []model.Label{}

	err := c.WithContext(ctx).
		Where("LOWER(label) LIKE LOWER(?) ESCAPE '!'", "%"+escapeLike(pattern)+"%").
		Order("assetid ASC").
		Order("label ASC").
		Find(&labels).Error

	return labels, wrap("searchLabels", err)
}

// ListUsers 返回全部用户，按 userid 排序.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}

	err := c.WithContext(ctx).Order("userid ASC").Find(&users).Error

	return users, wrap("listUsers", err)
}

// ListAssets 返回资产列表，userID 非空时只返回该用户的资产.
func (c *Client) ListAssets(ctx context.Context, userID *int64) ([]model.Asset, error) {
	assets := []model.Asset{}

	q := c.WithContext(ctx).Order("assetid ASC")
	if userID != nil {
		q = q.Where("userid = ?", *userID)
	}

	err := q.Find(&assets).Error

	return assets, wrap("listAssets", err)
}

// BucketKeys 返回所有资产的对象键.
func (c *Client) BucketKeys(ctx context.Context) ([]string, error) {
	keys := []string{}

	err := c.WithContext(ctx).
		Model(&model.Asset{}).
		Order("assetid ASC").
		Pluck("bucketkey", &keys).Error

	return keys, wrap("bucketKeys", err)
}

// CountUsers 返回 users 表的行数.
func (c *Client) CountUsers(ctx context.Context) (int64, error) {
	var n int64

	err := c.WithContext(ctx).Model(&model.User{}).Count(&n).Error

	return n, wrap("countUsers", err)
}

// CreateUser 新增用户，供命令行初始化数据使用.
func (c *Client) CreateUser(ctx context.Context, u *model.User) error {
	return wrap("createUser", c.WithContext(ctx).Create(u).Error)
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '!' {
			out = append(out, '!')
		}

		out = append(out, r)
	}

	return string(out)
}
