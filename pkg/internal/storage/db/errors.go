package db

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yeisme/photovault/pkg/errs"
)

// MySQL 中可以安全重试的错误号.
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlTooManyConns    = 1040
	mysqlServerGone      = 2006
	mysqlServerLost      = 2013
)

// IsTransient 判断数据库错误是否为暂时性故障.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlLockWaitTimeout, mysqlDeadlock, mysqlTooManyConns, mysqlServerGone, mysqlServerLost:
			return true
		}

		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected, 57P03 cannot_connect_now,
		// 53300 too_many_connections
		switch pgErr.Code {
		case "40001", "40P01", "57P03", "53300":
			return true
		}

		return false
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	return errs.IsNetwork(err)
}

// wrap 将暂时性错误标记为 errs.KindTransient，其余错误附加操作名后原样返回.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	if IsTransient(err) {
		return errs.Transient("db."+op, err)
	}

	return &errs.Error{Kind: errs.KindInternal, Op: "db." + op, Err: err}
}
