package browser

import (
	"regexp"
	"sync"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

// ErrorFilter sorts page script errors into benign noise from third-party
// scripts and errors worth reporting. Only the latter are retained.
type ErrorFilter struct {
	benign []*regexp.Regexp

	mu         sync.Mutex
	unexpected []string
	ignored    int
}

// NewErrorFilter compiles the benign patterns.
func NewErrorFilter(patterns []string) (*ErrorFilter, error) {
	f := &ErrorFilter{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errs.Wrap(errs.InvalidConfiguration, "benign page error pattern "+p, err)
		}
		f.benign = append(f.benign, re)
	}
	return f, nil
}

// Observe records msg and reports whether it was unexpected.
func (f *ErrorFilter) Observe(msg string) bool {
	for _, re := range f.benign {
		if re.MatchString(msg) {
			f.mu.Lock()
			f.ignored++
			f.mu.Unlock()
			return false
		}
	}
	f.mu.Lock()
	f.unexpected = append(f.unexpected, msg)
	f.mu.Unlock()
	return true
}

// Unexpected returns a copy of the retained errors in arrival order.
func (f *ErrorFilter) Unexpected() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.unexpected...)
}

// Ignored returns how many benign errors were dropped.
func (f *ErrorFilter) Ignored() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ignored
}
