package backup

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/live-labs/confbak/internal/crypto"
	"github.com/live-labs/confbak/internal/store"
)

// DefaultConcurrency bounds the reconciliation fan-out when no explicit
// limit is configured.
const DefaultConcurrency = 8

// EntryError records one entry that could not be applied.
type EntryError struct {
	Key         string `json:"key"`
	Environment string `json:"environment"`
	Err         error  `json:"error"`
}

// Result aggregates the outcome of one import. For every envelope,
// Imported + Skipped + len(Errors) equals the number of entries it held.
type Result struct {
	Imported int          `json:"imported"`
	Skipped  int          `json:"skipped"`
	Errors   []EntryError `json:"errors"`
}

// Importer reconciles sealed backup artifacts into a store.
type Importer struct {
	Client store.Client

	// Concurrency bounds how many entries are applied at once.
	// Zero or negative means DefaultConcurrency.
	Concurrency int

	// Logger receives per-entry failures. Defaults to slog.Default.
	Logger *slog.Logger
}

// Import decodes the artifact with the password and applies every entry to
// the store. Decode and format failures reject the whole call before any
// store operation; per-entry failures only populate Result.Errors, so a
// caller must inspect that list to know whether the import was complete.
func (im *Importer) Import(ctx context.Context, transport string, password []byte, overwrite bool) (*Result, error) {
	plaintext, err := crypto.Open(transport, password)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(plaintext)
	if err != nil {
		return nil, err
	}

	return im.Reconcile(ctx, env, overwrite)
}

// Reconcile applies each envelope entry independently. Entries are
// dispatched with bounded concurrency and every one runs to completion:
// there is no early abort and no rollback, so entries applied before a
// later failure stay applied.
func (im *Importer) Reconcile(ctx context.Context, env *Envelope, overwrite bool) (*Result, error) {
	logger := im.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := im.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	result := &Result{}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(limit)

	for _, entry := range env.Configs {
		entry := entry
		g.Go(func() error {
			outcome, err := im.applyEntry(ctx, entry, overwrite)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case entryImported:
				result.Imported++
			case entrySkipped:
				result.Skipped++
			case entryFailed:
				result.Errors = append(result.Errors, EntryError{
					Key:         entry.Key,
					Environment: entry.Environment,
					Err:         err,
				})
				logger.Warn("backup entry failed",
					"key", entry.Key,
					"environment", entry.Environment,
					"error", err)
			}
			return nil
		})
	}

	g.Wait()
	return result, nil
}

// Terminal states of a single entry. No retries beyond the documented
// create fallback.
type entryOutcome int

const (
	entryImported entryOutcome = iota
	entrySkipped
	entryFailed
)

func (im *Importer) applyEntry(ctx context.Context, entry store.Entry, overwrite bool) (entryOutcome, error) {
	if overwrite {
		if _, err := im.Client.Update(ctx, entry); err == nil {
			return entryImported, nil
		}
		// Update failed (typically: entry does not exist) - fall back to
		// create before giving up on the entry.
		if _, err := im.Client.Create(ctx, entry); err != nil {
			return entryFailed, err
		}
		return entryImported, nil
	}

	exists, err := im.Client.Exists(ctx, entry.Key, entry.Environment)
	if err == nil && exists {
		return entrySkipped, nil
	}
	// A failed existence check is not treated as "exists": create
	// optimistically and let the store arbitrate. A transient check failure
	// can therefore surface as a duplicate-key entry error instead of a
	// skip.
	if _, err := im.Client.Create(ctx, entry); err != nil {
		return entryFailed, err
	}
	return entryImported, nil
}
