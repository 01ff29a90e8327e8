package errs_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/yeisme/photovault/pkg/errs"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want errs.Kind
	}{
		{errs.Validation("upload", "no such userid"), errs.KindValidation},
		{errs.Consistency("upload", "%d rows", 2), errs.KindConsistency},
		{errs.Transient("s3.put", io.ErrUnexpectedEOF), errs.KindTransient},
		{errs.Partial("deleteAll", errors.New("x"), "2 keys"), errs.KindPartial},
		{fmt.Errorf("wrapped: %w", errs.Validation("op", "bad")), errs.KindValidation},
		{errors.New("plain"), errs.KindInternal},
		{nil, errs.KindInternal},
	}

	for _, c := range cases {
		if got := errs.KindOf(c.err); got != c.want {
			t.Errorf("KindOf(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}

func TestIsTransient(t *testing.T) {
	transient := []error{
		errs.Transient("op", errors.New("slow down")),
		timeoutErr{},
		&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
		fmt.Errorf("read: %w", syscall.ECONNRESET),
		io.ErrUnexpectedEOF,
		driver.ErrBadConn,
	}
	for _, err := range transient {
		if !errs.IsTransient(err) {
			t.Errorf("expected %v to be transient", err)
		}
	}

	permanent := []error{
		nil,
		errors.New("syntax error"),
		errs.Validation("op", "no such assetid"),
		errs.Consistency("op", "duplicate"),
		context.Canceled,
	}
	for _, err := range permanent {
		if errs.IsTransient(err) {
			t.Errorf("expected %v to be permanent", err)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := errs.Validation("upload.lookupUsername", "no such userid")
	if got := err.Error(); got != "upload.lookupUsername: no such userid" {
		t.Errorf("unexpected message %q", got)
	}

	cause := errors.New("access denied")

	err = errs.Partial("deleteAll.deleteBlobs", cause, "%d of %d objects not removed", 2, 5)
	if got := err.Error(); got != "deleteAll.deleteBlobs: 2 of 5 objects not removed: access denied" {
		t.Errorf("unexpected message %q", got)
	}

	if !errors.Is(err, cause) {
		t.Error("partial error should unwrap to its cause")
	}

	if !errors.Is(err, &errs.Error{Kind: errs.KindPartial}) {
		t.Error("errors.Is should match by kind")
	}
}
