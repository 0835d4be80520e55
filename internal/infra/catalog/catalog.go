// Package catalog loads the baseline reminder definitions that new subjects
// are seeded with.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"care_reminder_service/internal/domain/reminder"
)

//go:embed baseline.json
var embeddedBaseline []byte

// entry is the on-disk shape of one catalog row.
type entry struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Frequency      string `json:"frequency"`
	Occurrence     *int   `json:"occurrence"`
	RequiresAction *bool  `json:"requiresAction"`
}

// Loader reads the catalog from Path, or from the embedded baseline when
// Path is empty. The file is re-read on every Load so edits take effect
// without a restart.
type Loader struct {
	Path string
}

func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

func (l *Loader) Load(ctx context.Context) ([]reminder.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Path == "" {
		return Parse(embeddedBaseline)
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", l.Path, err)
	}
	return Parse(data)
}

// Parse decodes a JSON catalog. Any invalid row fails the whole catalog.
func Parse(data []byte) ([]reminder.Template, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	templates := make([]reminder.Template, 0, len(entries))
	for i, e := range entries {
		kind, err := reminder.ParseKind(e.Type)
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: %w", i, err)
		}
		freq, err := reminder.ParseFrequency(e.Frequency)
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: %w", i, err)
		}
		if e.Title == "" {
			return nil, fmt.Errorf("catalog row %d: title is required", i)
		}

		t := reminder.Template{
			Kind:        kind,
			Title:       e.Title,
			Description: e.Description,
			Frequency:   freq,
		}
		if e.Occurrence != nil {
			t.OccurrenceOffsetDays = *e.Occurrence
		}
		if e.RequiresAction != nil {
			t.RequiresAction = *e.RequiresAction
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// Static serves a fixed list of templates.
type Static []reminder.Template

func (s Static) Load(context.Context) ([]reminder.Template, error) {
	out := make([]reminder.Template, len(s))
	copy(out, s)
	return out, nil
}
