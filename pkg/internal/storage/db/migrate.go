package db

import (
	"context"
	"fmt"

	"github.com/yeisme/photovault/pkg/internal/model"
)

// Migrate 创建或更新 users、assets、labels 三张表.
func (c *Client) Migrate(ctx context.Context) error {
	if err := c.WithContext(ctx).AutoMigrate(&model.User{}, &model.Asset{}, &model.Label{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}

// TableStat 表名与行数.
type TableStat struct {
	Name string
	Rows int64
}

// Tables 返回数据库中的表以及核心表的行数.
func (c *Client) Tables(ctx context.Context) ([]TableStat, error) {
	names, err := c.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, wrap("tables", err)
	}

	stats := make([]TableStat, 0, len(names))
	for _, name := range names {
		var n int64
		if err := c.WithContext(ctx).Table(name).Count(&n).Error; err != nil {
			return nil, wrap("tables", err)
		}

		stats = append(stats, TableStat{Name: name, Rows: n})
	}

	return stats, nil
}
