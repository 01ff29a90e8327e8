// Package db 是 photovault 的元数据存储客户端，基于 gorm 访问 users、assets、labels 三张表.
//
// 支持 MySQL/MariaDB、PostgreSQL 与 SQLite，各方言通过 RegisterDialectorFactory 注册.
// 所有方法都把后端的暂时性错误包装为 errs.KindTransient，调用方据此决定是否重试.
package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/photovault/pkg/configs"
	nlog "github.com/yeisme/photovault/pkg/log"
)

// DialectorFactory 定义创建 dialector 的函数类型.
type DialectorFactory func(dsn string) gorm.Dialector

// dialectorFactories 存储数据库类型到 dialector 工厂的映射.
var dialectorFactories = map[configs.DBType]DialectorFactory{}

// RegisterDialectorFactory 注册数据库 dialector 工厂函数.
func RegisterDialectorFactory(factory DialectorFactory, dbTypes ...configs.DBType) {
	for _, t := range dbTypes {
		dialectorFactories[t] = factory
	}
}

// GetRegisteredDBTypes 返回已注册的数据库类型列表.
func GetRegisteredDBTypes() []configs.DBType {
	types := make([]configs.DBType, 0, len(dialectorFactories))
	for dbType := range dialectorFactories {
		types = append(types, dbType)
	}

	return types
}

// Dialect 归一化后的 SQL 方言.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectOf 将配置中的数据库类型归一化.
func DialectOf(t configs.DBType) Dialect {
	switch t {
	case configs.PostgreSQL, configs.Postgres, configs.Pg:
		return DialectPostgres
	case configs.SQLite:
		return DialectSQLite
	default:
		return DialectMySQL
	}
}

// Client 包装 GORM DB 客户端.
type Client struct {
	*gorm.DB
	dialect Dialect
}

// Options 控制 New 的可选行为.
type Options struct {
	// Metrics 为 true 时注册 gorm prometheus 插件.
	Metrics bool
}

// New 按配置打开数据库并检查连通性. 连接池在 Client 生命周期内共享.
func New(ctx context.Context, cfg configs.DBConfig, opts Options) (*Client, error) {
	dsn := cfg.GetDSN()
	if dsn == "" {
		return nil, fmt.Errorf("failed to generate DSN for database type: %s", cfg.Type)
	}

	factory, exists := dialectorFactories[cfg.Type]
	if !exists {
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	slow, err := time.ParseDuration(cfg.SlowThreshold)
	if err != nil {
		slow = 200 * time.Millisecond
	}

	gdb, err := gorm.Open(factory(dsn), &gorm.Config{
		Logger: logger.New(
			nlog.Logger(),
			logger.Config{
				SlowThreshold:             slow,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 获取底层 SQL DB 以配置连接池
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	client := Wrap(gdb, cfg.Type)

	if opts.Metrics {
		if err := client.RegisterGORMMetrics(cfg.Database); err != nil {
			return nil, err
		}
	}

	if cfg.AutoMigrate {
		if err := client.Migrate(ctx); err != nil {
			return nil, err
		}
	}

	nlog.Logger().Info().
		Str("type", cfg.GetDBType()).
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("database connected")

	return client, nil
}

// Wrap 用已打开的 gorm 连接构造 Client.
func Wrap(gdb *gorm.DB, t configs.DBType) *Client {
	return &Client{DB: gdb, dialect: DialectOf(t)}
}

// Dialect 返回当前连接的 SQL 方言.
func (c *Client) Dialect() Dialect {
	return c.dialect
}

// Close 关闭连接池.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

const defaultGORMMetricsRefreshInterval = 15 // 秒

// RegisterGORMMetrics 注册 GORM 连接池指标.
func (c *Client) RegisterGORMMetrics(dbName string) error {
	promConfig := gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: defaultGORMMetricsRefreshInterval,
		StartServer:     false,
	}

	if err := c.Use(gormPrometheus.New(promConfig)); err != nil {
		return fmt.Errorf("failed to register GORM prometheus plugin: %w", err)
	}

	return nil
}
