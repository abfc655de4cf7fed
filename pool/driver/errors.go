package driver

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrAuthentication      = errors.New("authentication failed")
	ErrProtocolVersion     = errors.New("unsupported protocol version")
	ErrClusterNameMismatch = errors.New("cluster name mismatch")
	ErrWrongShard          = errors.New("connection landed on another shard")
)

// ErrorKind tags the outcome of a failed dial.
type ErrorKind int

const (
	// KindTransient errors cost the pool one connection until the next
	// creation attempt.
	KindTransient ErrorKind = iota
	// The kinds below mean no connection to the node will ever succeed.
	KindAuthentication
	KindProtocolVersion
	KindClusterNameMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindAuthentication:
		return "authentication"
	case KindProtocolVersion:
		return "protocol-version"
	case KindClusterNameMismatch:
		return "cluster-name-mismatch"
	default:
		return fmt.Sprintf("unknown kind: %d", int(k))
	}
}

// Fatal reports whether the kind aborts pool initialization.
func (k ErrorKind) Fatal() bool {
	return k != KindTransient
}

// DialError is returned by dialers that know why a connection could not be
// established.
type DialError struct {
	Kind ErrorKind
	Err  error
}

func NewDialError(kind ErrorKind, err error) *DialError {
	return &DialError{Kind: kind, Err: err}
}

func (e *DialError) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " dial error"
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *DialError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAuthentication) and friends hold for a
// DialError of the matching kind.
func (e *DialError) Is(target error) bool {
	return kindOfSentinel(target) == e.Kind && e.Kind != KindTransient
}

func kindOfSentinel(err error) ErrorKind {
	switch err {
	case ErrAuthentication:
		return KindAuthentication
	case ErrProtocolVersion:
		return KindProtocolVersion
	case ErrClusterNameMismatch:
		return KindClusterNameMismatch
	default:
		return KindTransient
	}
}

// KindOf classifies err. Errors that are neither a DialError nor wrap one
// of the fatal sentinels are transient.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindTransient
	}

	var de *DialError
	if errors.As(err, &de) {
		return de.Kind
	}

	for _, sentinel := range []error{ErrAuthentication, ErrProtocolVersion, ErrClusterNameMismatch} {
		if errors.Is(err, sentinel) {
			return kindOfSentinel(sentinel)
		}
	}

	return KindTransient
}

// IsFatal reports whether err means no connection to the node can succeed.
func IsFatal(err error) bool {
	return KindOf(err).Fatal()
}
