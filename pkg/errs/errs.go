// Package errs 定义 photovault 的错误分类.
//
// 每个错误属于以下一种类别：
//
//	Validation  调用方输入不合法（不存在的 userid/assetid 等），HTTP 映射为 400
//	Transient   网络或服务端暂时性故障，可以重试
//	Consistency 元数据存储出现了不应出现的状态，例如同一个 bucketkey 对应多行
//	Partial     操作的一部分已生效，另一部分失败，例如元数据已清空但对象删除失败
//
// 未分类的错误视为 Internal.
package errs

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Kind 错误类别.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindTransient
	KindConsistency
	KindPartial
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	case KindConsistency:
		return "consistency"
	case KindPartial:
		return "partial"
	default:
		return "internal"
	}
}

// Error 带类别与操作名的错误.
type Error struct {
	Kind Kind
	Op   string // 出错的步骤，例如 "upload.lookupUsername"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}

	if e.Op == "" {
		return msg
	}

	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 让 errors.Is(err, &Error{Kind: k}) 按类别匹配.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Op == "" && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Validation 创建输入校验错误.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Consistency 创建元数据一致性错误.
func Consistency(op, format string, args ...any) error {
	return &Error{Kind: KindConsistency, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Transient 将 err 标记为可重试.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// Partial 创建部分成功错误，err 为失败部分的原因.
func Partial(op string, err error, format string, args ...any) error {
	return &Error{Kind: KindPartial, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 返回错误链中第一个 *Error 的类别，没有则为 KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// IsValidation 判断错误是否为输入校验错误.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsTransient 判断错误是否值得重试.
// 显式标记为 Transient 的错误，以及常见的网络层故障都视为暂时性错误.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindTransient {
			return true
		}

		if e.Kind != KindInternal {
			return false
		}
	}

	return IsNetwork(err)
}

// IsNetwork 判断是否为连接失败、超时或连接被重置等网络层错误.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, driver.ErrBadConn)
}
