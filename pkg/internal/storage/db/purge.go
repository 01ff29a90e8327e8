package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/photovault/pkg/internal/model"
	nlog "github.com/yeisme/photovault/pkg/log"
)

// FirstAssetID 清空后资产编号重新开始的值（MySQL 与 PostgreSQL）.
const FirstAssetID = 1001

// PurgeAssets 在一个事务中清空 labels 与 assets 并重置资产编号序列，返回删除的资产数.
//
// PostgreSQL 用一条 TRUNCATE 同时清空两张表；SQLite 先删 labels 再删 assets.
// MySQL 在事务内关闭外键检查，无论成败都在同一连接上恢复；ALTER TABLE 会隐式提交，
// 因此编号重置放在事务提交之后，失败只记录日志.
func (c *Client) PurgeAssets(ctx context.Context) (int64, error) {
	var purged int64

	plan := PurgePlanFor(c.dialect)

	err := c.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		if err := tx.Model(&model.Asset{}).Count(&purged).Error; err != nil {
			return err
		}

		if plan.DisableFK != "" {
			if err := tx.Exec(plan.DisableFK).Error; err != nil {
				return fmt.Errorf("%s: %w", plan.DisableFK, err)
			}

			// 外键检查是会话级状态，回滚不会恢复.
			defer func() {
				if rerr := tx.Exec(plan.EnableFK).Error; rerr != nil && err == nil {
					err = fmt.Errorf("%s: %w", plan.EnableFK, rerr)
				}
			}()
		}

		for _, stmt := range plan.Statements {
			if err := execPurgeStatement(tx, stmt); err != nil {
				return fmt.Errorf("%s: %w", stmt.SQL, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, wrap("purgeAssets", err)
	}

	if plan.ResetSequence != "" {
		if err := c.WithContext(ctx).Exec(plan.ResetSequence).Error; err != nil {
			l := nlog.Ctx(ctx)
			l.Warn().Err(err).Str("sql", plan.ResetSequence).Msg("reset asset id sequence failed")
		}
	}

	return purged, nil
}

// PurgePlan 一种方言清空资产表的语句.
type PurgePlan struct {
	// DisableFK 与 EnableFK 在事务内包住 Statements，EnableFK 在任何退出路径上都会执行
	DisableFK  string
	EnableFK   string
	Statements []PurgeStatement
	// ResetSequence 在事务提交后执行，失败不影响清空结果
	ResetSequence string
}

// PurgeStatement 事务内的一条清空语句.
type PurgeStatement struct {
	SQL string
	// Guard 非空时先执行，返回 0 则跳过该语句
	Guard string
}

// PurgePlanFor 返回指定方言清空资产表所用的语句.
func PurgePlanFor(d Dialect) PurgePlan {
	switch d {
	case DialectPostgres:
		return PurgePlan{Statements: []PurgeStatement{
			{SQL: "TRUNCATE TABLE labels, assets CASCADE"},
			{SQL: fmt.Sprintf("SELECT setval(pg_get_serial_sequence('assets', 'assetid'), %d, false)", FirstAssetID)},
		}}
	case DialectSQLite:
		return PurgePlan{Statements: []PurgeStatement{
			{SQL: "DELETE FROM labels"},
			{SQL: "DELETE FROM assets"},
			{
				SQL:   "DELETE FROM sqlite_sequence WHERE name = 'assets'",
				Guard: "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'sqlite_sequence'",
			},
		}}
	default:
		return PurgePlan{
			DisableFK: "SET FOREIGN_KEY_CHECKS = 0",
			EnableFK:  "SET FOREIGN_KEY_CHECKS = 1",
			Statements: []PurgeStatement{
				{SQL: "DELETE FROM labels"},
				{SQL: "DELETE FROM assets"},
			},
			ResetSequence: fmt.Sprintf("ALTER TABLE assets AUTO_INCREMENT = %d", FirstAssetID),
		}
	}
}

func execPurgeStatement(tx *gorm.DB, stmt PurgeStatement) error {
	if stmt.Guard != "" {
		var n int64
		if err := tx.Raw(stmt.Guard).Scan(&n).Error; err != nil {
			return err
		}

		if n == 0 {
			return nil
		}
	}

	return tx.Exec(stmt.SQL).Error
}
