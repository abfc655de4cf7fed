package base

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// CheckOptions is a named health check. CheckFunc returns nil while the
// checked component is healthy.
type CheckOptions struct {
	Name      string
	CheckFunc func(ctx context.Context) error
}

// MapCheckOptions is a set of checks keyed by name.
type MapCheckOptions struct {
	mu      sync.RWMutex
	options map[string]*CheckOptions
}

func NewMapCheckOptions() *MapCheckOptions {
	return &MapCheckOptions{options: make(map[string]*CheckOptions)}
}

func (mcf *MapCheckOptions) Add(options *CheckOptions) error {
	switch {
	case options == nil:
		return ErrOptionsIsNil
	case options.Name == "":
		return ErrEmptyOptionsName
	case options.CheckFunc == nil:
		return ErrFuncIsNil
	}

	mcf.mu.Lock()
	defer mcf.mu.Unlock()

	if _, ok := mcf.options[options.Name]; ok {
		return errors.Wrapf(ErrConflictName, "name: %s", options.Name)
	}
	mcf.options[options.Name] = options

	return nil
}

// Check runs the checks in name order and returns the first failure
// wrapped with the check name.
func (mcf *MapCheckOptions) Check(ctx context.Context) error {
	mcf.mu.RLock()
	names := make([]string, 0, len(mcf.options))
	for name := range mcf.options {
		names = append(names, name)
	}
	checks := make([]*CheckOptions, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		checks = append(checks, mcf.options[name])
	}
	mcf.mu.RUnlock()

	for _, c := range checks {
		if err := c.CheckFunc(ctx); err != nil {
			return errors.Wrapf(err, "check %s", c.Name)
		}
	}

	return nil
}

// CheckStorage keeps liveness and readiness checks of a component.
type CheckStorage struct {
	alive *MapCheckOptions
	ready *MapCheckOptions
}

func NewCheckStorage() *CheckStorage {
	return &CheckStorage{
		alive: NewMapCheckOptions(),
		ready: NewMapCheckOptions(),
	}
}

func (s *CheckStorage) GetAliveHandlers() *MapCheckOptions {
	return s.alive
}

func (s *CheckStorage) GetReadyHandlers() *MapCheckOptions {
	return s.ready
}
