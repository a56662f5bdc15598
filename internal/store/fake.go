package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Fake is an in-memory Client for unit tests. All operations are safe for
// concurrent use. Failures can be injected per (key, environment) and per
// operation; Hook, when set, runs at the start of every operation.
type Fake struct {
	mu      sync.Mutex
	entries map[string]Entry

	FailCreate map[string]error // keyed by environment + "/" + key
	FailUpdate map[string]error
	FailExists map[string]error
	FailList   error

	Hook func(op string, e *Entry)
	Ops  []string
}

func NewFake() *Fake {
	return &Fake{
		entries:    map[string]Entry{},
		FailCreate: map[string]error{},
		FailUpdate: map[string]error{},
		FailExists: map[string]error{},
	}
}

func fakeID(key, environment string) string {
	return environment + "/" + key
}

// Seed inserts entries directly, bypassing failure injection.
func (f *Fake) Seed(entries ...Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range entries {
		f.entries[fakeID(e.Key, e.Environment)] = e
	}
}

// Get returns the stored entry, for assertions.
func (f *Fake) Get(key, environment string) (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[fakeID(key, environment)]
	return e, ok
}

func (f *Fake) begin(op string, e *Entry) {
	f.mu.Lock()
	f.Ops = append(f.Ops, op)
	hook := f.Hook
	f.mu.Unlock()
	if hook != nil {
		hook(op, e)
	}
}

func (f *Fake) List(_ context.Context, filters Filters) ([]Entry, error) {
	f.begin("list", nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailList != nil {
		return nil, f.FailList
	}
	out := make([]Entry, 0, len(f.entries))
	for _, e := range f.entries {
		if filters.Match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Environment != out[j].Environment {
			return out[i].Environment < out[j].Environment
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func (f *Fake) Read(_ context.Context, key, environment string) (*Entry, error) {
	f.begin("read", nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[fakeID(key, environment)]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (f *Fake) Exists(_ context.Context, key, environment string) (bool, error) {
	f.begin("exists", nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailExists[fakeID(key, environment)]; err != nil {
		return false, err
	}
	_, ok := f.entries[fakeID(key, environment)]
	return ok, nil
}

func (f *Fake) Create(_ context.Context, e Entry) (*Entry, error) {
	f.begin("create", &e)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fakeID(e.Key, e.Environment)
	if err := f.FailCreate[id]; err != nil {
		return nil, err
	}
	if _, ok := f.entries[id]; ok {
		return nil, ErrAlreadyExists
	}
	now := time.Now().UTC()
	e.CreatedAt = &now
	e.UpdatedAt = &now
	f.entries[id] = e
	return &e, nil
}

func (f *Fake) Update(_ context.Context, e Entry) (*Entry, error) {
	f.begin("update", &e)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fakeID(e.Key, e.Environment)
	if err := f.FailUpdate[id]; err != nil {
		return nil, err
	}
	existing, ok := f.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := time.Now().UTC()
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = &now
	f.entries[id] = e
	return &e, nil
}

func (f *Fake) Delete(_ context.Context, key, environment string) error {
	f.begin("delete", nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	id := fakeID(key, environment)
	if _, ok := f.entries[id]; !ok {
		return ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

func (f *Fake) Ping(_ context.Context) error {
	f.begin("ping", nil)
	return nil
}

func (f *Fake) ClusterDistribution(_ context.Context) (*Distribution, error) {
	f.begin("distribution", nil)
	f.mu.Lock()
	defer f.mu.Unlock()
	return &Distribution{
		Enabled:   false,
		TotalKeys: len(f.entries),
		Nodes: []NodeDistribution{
			{NodeID: "fake", KeyCount: len(f.entries), Status: "healthy"},
		},
	}, nil
}

var _ Client = (*Fake)(nil)
