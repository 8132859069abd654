package imu

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrorKind is a stable transport failure class. It implements error so it can
// be used directly as a sentinel with errors.Is.
type ErrorKind string

func (k ErrorKind) Error() string { return string(k) }

const (
	ErrTimeout          ErrorKind = "timeout"
	ErrNack             ErrorKind = "nack"
	ErrBusFault         ErrorKind = "bus-fault"
	ErrPinConflict      ErrorKind = "pin-conflict"
	ErrInvalidConfig    ErrorKind = "invalid-config"
	ErrAlreadyInstalled ErrorKind = "already-installed"
)

// TransportError is returned by every bus primitive.
type TransportError struct {
	Kind     ErrorKind
	Op       string
	Address  byte
	Register byte
	Err      error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s at %#02x reg %#02x", e.Op, e.Kind, e.Address, e.Register)
	if e.Err != nil && !errors.Is(e.Err, e.Kind) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// KindOf classifies err. Deadlines map to ErrTimeout, anything unknown to ErrBusFault.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind
	}
	var k ErrorKind
	if errors.As(err, &k) {
		return k
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrTimeout
	}
	return ErrBusFault
}
