package base

import "github.com/pkg/errors"

var (
	ErrConflictName         = errors.New("conflict name")
	ErrEmptyOptionsName     = errors.New("empty options name")
	ErrOptionsIsNil         = errors.New("pointer to options is nil")
	ErrFuncIsNil            = errors.New("pointer to function is nil")
	ErrFailedTypecastMetric = errors.New("failed typecast metric")
	ErrInvalidCollector     = errors.New("invalid collector")
)
