//go:build !no_sqlite && cgo

package db

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/photovault/pkg/configs"
)

// createSQLiteDialector 创建SQLite dialector (CGo版本，mattn/go-sqlite3 的参数写法).
func createSQLiteDialector(dsn string) gorm.Dialector {
	return sqlite.Open(strings.Replace(dsn, "_pragma=foreign_keys(1)", "_foreign_keys=1", 1))
}

func init() {
	RegisterDialectorFactory(createSQLiteDialector, configs.SQLite)
}
