package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/live-labs/confbak/internal/crypto"
	"github.com/live-labs/confbak/internal/store"
)

// Exporter snapshots a store into sealed backup artifacts.
type Exporter struct {
	Client store.Client

	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

// Export lists the entries matching the filters, wraps them in an envelope
// and seals the result with the backup password. The list call is a single
// best-effort snapshot; a read failure propagates unchanged and nothing is
// emitted.
func (e *Exporter) Export(ctx context.Context, filters store.Filters, password []byte) (string, error) {
	env, err := e.Snapshot(ctx, filters)
	if err != nil {
		return "", err
	}

	plaintext, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to serialize backup: %w", err)
	}

	return crypto.Seal(plaintext, password)
}

// Snapshot builds the envelope without sealing it.
func (e *Exporter) Snapshot(ctx context.Context, filters store.Filters) (*Envelope, error) {
	entries, err := e.Client.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ts := now().UTC()

	return &Envelope{
		Version:   EnvelopeVersion,
		BackupID:  fmt.Sprintf("backup-%d", ts.Unix()),
		Timestamp: ts.Format(time.RFC3339),
		Filters:   filters,
		TotalKeys: len(entries),
		Configs:   entries,
	}, nil
}
