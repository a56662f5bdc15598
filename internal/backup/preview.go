package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/live-labs/confbak/internal/store"
)

// Change describes what importing one envelope entry would do.
type Change struct {
	Key         string
	Environment string
	Category    string

	// Diff holds a textual diff of the live value against the backup
	// value. Only set for updates.
	Diff string

	// Err is set when the live entry could not be inspected.
	Err error
}

// Plan classifies every envelope entry against the live store without
// writing anything.
type Plan struct {
	ToCreate  []Change
	ToUpdate  []Change
	Unchanged int
	Errors    []Change
}

// BuildPlan previews an import: each envelope entry is compared with the
// store's current state. Read failures do not abort the plan; the affected
// entries are collected under Errors.
func BuildPlan(ctx context.Context, client store.Client, env *Envelope) (*Plan, error) {
	plan := &Plan{}

	for _, entry := range env.Configs {
		live, err := client.Read(ctx, entry.Key, entry.Environment)
		switch {
		case errors.Is(err, store.ErrNotFound):
			plan.ToCreate = append(plan.ToCreate, change(entry, "", nil))
		case err != nil:
			plan.Errors = append(plan.Errors, change(entry, "", err))
		default:
			diff, err := valueDiff(entry.Key, live.Value, entry.Value)
			if err != nil {
				plan.Errors = append(plan.Errors, change(entry, "", err))
				continue
			}
			if diff == "" {
				plan.Unchanged++
				continue
			}
			plan.ToUpdate = append(plan.ToUpdate, change(entry, diff, nil))
		}
	}
	return plan, nil
}

func change(e store.Entry, diff string, err error) Change {
	return Change{
		Key:         e.Key,
		Environment: e.Environment,
		Category:    e.Category,
		Diff:        diff,
		Err:         err,
	}
}

// valueDiff renders a patch-style diff of two JSON values.
// Returns "" when the values are equal.
func valueDiff(key string, live, backed any) (string, error) {
	liveJSON, err := json.MarshalIndent(live, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render live value: %w", err)
	}
	backedJSON, err := json.MarshalIndent(backed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render backup value: %w", err)
	}
	if bytes.Equal(liveJSON, backedJSON) {
		return "", nil
	}

	dmp := diffmatchpatch.New()
	liveStr, backedStr := string(liveJSON)+"\n", string(backedJSON)+"\n"
	a, b, lineArray := dmp.DiffLinesToChars(liveStr, backedStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(liveStr, diffs)
	if len(patches) == 0 {
		return "", nil
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("--- live/%s\n", key))
	out.WriteString(fmt.Sprintf("+++ backup/%s\n", key))
	out.WriteString(dmp.PatchToText(patches))
	return out.String(), nil
}
