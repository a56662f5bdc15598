package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("configuration not found")
	ErrAlreadyExists = errors.New("configuration already exists")
)

// Entry is a single configuration entry. Identity is the (Key, Environment)
// pair: the same key may exist independently in several environments.
type Entry struct {
	Key         string     `json:"key"`
	Value       any        `json:"value"`
	Environment string     `json:"environment"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Filters narrows List results. Empty fields match everything.
type Filters struct {
	Environment string `json:"environment,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Match reports whether the entry passes the filters.
func (f Filters) Match(e Entry) bool {
	if f.Environment != "" && e.Environment != f.Environment {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	return true
}

// NodeDistribution describes how many keys one cluster node holds.
type NodeDistribution struct {
	NodeID   string `json:"node_id"`
	Address  string `json:"address,omitempty"`
	KeyCount int    `json:"keys_count"`
	Status   string `json:"status"`
}

// Distribution is the cluster-wide key distribution report.
type Distribution struct {
	Enabled   bool               `json:"enabled"`
	TotalKeys int                `json:"total_keys"`
	Nodes     []NodeDistribution `json:"nodes_distribution"`
}

// Client is the full contract against a configuration store. Everything the
// backup engine needs is a named method here; no implementation internals
// leak through.
type Client interface {
	// List returns the entries matching the filters.
	List(ctx context.Context, f Filters) ([]Entry, error)

	// Read returns the entry identified by (key, environment).
	// Returns ErrNotFound when absent.
	Read(ctx context.Context, key, environment string) (*Entry, error)

	// Exists reports whether (key, environment) is present.
	Exists(ctx context.Context, key, environment string) (bool, error)

	// Create stores a new entry. Returns ErrAlreadyExists when the
	// (key, environment) pair is already taken.
	Create(ctx context.Context, e Entry) (*Entry, error)

	// Update replaces the value (and category) of an existing entry.
	// Returns ErrNotFound when absent.
	Update(ctx context.Context, e Entry) (*Entry, error)

	// Delete removes (key, environment). Returns ErrNotFound when absent.
	Delete(ctx context.Context, key, environment string) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// ClusterDistribution reports how keys are spread across the store's
	// cluster nodes.
	ClusterDistribution(ctx context.Context) (*Distribution, error)
}
