package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/live-labs/confbak/internal/store"
)

// EnvelopeVersion tags the envelope format carried inside the transport
// artifact.
const EnvelopeVersion = "1"

var ErrInvalidFormat = errors.New("invalid backup format")

// Envelope is the versioned container for one exported snapshot. It is
// built once per export, serialized, and never mutated afterwards.
type Envelope struct {
	Version   string        `json:"version"`
	BackupID  string        `json:"backup_id"`
	Timestamp string        `json:"backup_timestamp"`
	Filters   store.Filters `json:"filters"`
	TotalKeys int           `json:"total_keys"`
	Configs   []store.Entry `json:"configurations"`
}

// decodeEnvelope parses envelope JSON and validates its shape. A payload
// whose configurations field is missing or not a list is rejected before
// any store call is made.
func decodeEnvelope(data []byte) (*Envelope, error) {
	var probe struct {
		Configs json.RawMessage `json:"configurations"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	trimmed := bytes.TrimSpace(probe.Configs)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: configurations missing", ErrInvalidFormat)
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: configurations is not a list", ErrInvalidFormat)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if env.Configs == nil {
		env.Configs = []store.Entry{}
	}
	return &env, nil
}
