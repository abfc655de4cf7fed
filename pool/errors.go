package pool

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrPoolUnavailable      = errors.New("pool unavailable")
	ErrPoolBusy             = errors.New("pool busy")
	ErrPoolShutdown         = errors.New("pool shut down")
	ErrPoolClosedDuringInit = errors.New("pool was closed during initialization")
	ErrInvalidOptions       = errors.New("invalid pool options")
	ErrInitCalled           = errors.New("pool init already called")
	ErrNoConnection         = errors.New("no connection could be opened")
)

// UnavailableError is returned by borrows on a pool that is not ready or
// whose node refuses reconnection.
type UnavailableError struct {
	Address string
	Phase   Phase
	// Refused is set when the node currently refuses reconnection.
	Refused bool
}

func (e *UnavailableError) Error() string {
	if e.Refused {
		return fmt.Sprintf("pool for %s is unavailable: node refuses reconnection", e.Address)
	}
	return fmt.Sprintf("pool for %s is %s", e.Address, e.Phase)
}

func (e *UnavailableError) Unwrap() error {
	return ErrPoolUnavailable
}

// BusyError is returned when a borrow can not be queued or waited longer
// than its timeout.
type BusyError struct {
	Address string
	// QueueSize is the queue bound that was hit, 0 when queueing was
	// disabled by the borrow options.
	QueueSize int
	// Timeout is set when a queued borrow timed out.
	Timeout time.Duration
}

func (e *BusyError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("pool for %s busy, timed out after %s", e.Address, e.Timeout)
	}
	return fmt.Sprintf("pool for %s busy (%d requests already pending)", e.Address, e.QueueSize)
}

func (e *BusyError) Unwrap() error {
	return ErrPoolBusy
}
