// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
)

// FakeDB answers queries from canned results keyed by query text.
type FakeDB struct {
	mu     sync.Mutex
	One    map[string]any
	All    map[string][][]any
	Errs   map[string]error
	Calls  []string
	Closed bool
}

// NewFakeDB returns an empty fake.
func NewFakeDB() *FakeDB {
	return &FakeDB{
		One:  map[string]any{},
		All:  map[string][][]any{},
		Errs: map[string]error{},
	}
}

// QueryAll returns the rows registered for query.
func (f *FakeDB) QueryAll(ctx context.Context, query string, args ...any) ([][]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, query)

	if err := f.Errs[query]; err != nil {
		return nil, err
	}
	if rows, ok := f.All[query]; ok {
		return rows, nil
	}
	if v, ok := f.One[query]; ok {
		return [][]any{{v}}, nil
	}
	return nil, fmt.Errorf("fake: unexpected query %q", query)
}

// QueryOne returns the scalar registered for query, or the first cell of
// its registered rows.
func (f *FakeDB) QueryOne(ctx context.Context, query string, args ...any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, query)

	if err := f.Errs[query]; err != nil {
		return nil, err
	}
	if v, ok := f.One[query]; ok {
		return v, nil
	}
	if rows, ok := f.All[query]; ok {
		if len(rows) == 0 || len(rows[0]) == 0 {
			return nil, nil
		}
		return rows[0][0], nil
	}
	return nil, fmt.Errorf("fake: unexpected query %q", query)
}

// Close marks the fake closed.
func (f *FakeDB) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Called reports whether query was run.
func (f *FakeDB) Called(query string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if c == query {
			return true
		}
	}
	return false
}
