package channel

import (
	"errors"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidAddress reports an empty or oversized logical name.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrAddressInUse reports that another socket already owns the name.
	ErrAddressInUse = errors.New("address already in use")
	// ErrConnectionRefused reports that nothing is listening on the name.
	ErrConnectionRefused = errors.New("connection refused")
	// ErrSystem covers every other OS-level failure.
	ErrSystem = errors.New("system error")
	// ErrClosed is returned by operations on a released channel.
	ErrClosed = errors.New("channel closed")
)

// OpError describes a failed channel operation.
type OpError struct {
	Op   string
	Addr string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Addr != "" {
		b.WriteByte(' ')
		b.WriteString(e.Addr)
	}
	b.WriteString(": ")
	switch {
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	case e.Kind != nil:
		b.WriteString(e.Kind.Error())
	default:
		b.WriteString("unknown error")
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func opError(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	kind := ErrSystem
	switch {
	case errors.Is(err, unix.EADDRINUSE):
		kind = ErrAddressInUse
	case errors.Is(err, unix.ECONNREFUSED):
		kind = ErrConnectionRefused
	}
	return &OpError{Op: op, Addr: addr, Kind: kind, Err: err}
}

func invalidAddress(op, addr string) error {
	return &OpError{Op: op, Addr: addr, Kind: ErrInvalidAddress}
}

func closedError(op, addr string) error {
	return &OpError{Op: op, Addr: addr, Kind: ErrClosed}
}
