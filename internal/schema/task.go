package schema

import (
	"errors"
	"slices"
)

// Table is the name of the persisted tasks table.
const Table = "tasks"

// Column names of the tasks table.
const (
	ColID       = "id"
	ColCategory = "category"
	ColStarted  = "started"
	ColDuration = "duration"
)

// Well-known categories. Any non-empty string is accepted by the store.
const (
	CategoryWork      = "work"
	CategoryBreak     = "break"
	CategoryMeeting   = "meeting"
	CategoryInterrupt = "interrupt"
)

var (
	// ErrUnknownColumn is returned when a predicate, sort order or write
	// names a column outside the allow-list.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrMissingRequiredField is returned when a write would leave a
	// required column (category, started) absent or NULL.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidValue is returned when a value has the wrong type for its column.
	ErrInvalidValue = errors.New("invalid value")

	// ErrEmptyValues is returned when an update carries no column to set.
	ErrEmptyValues = errors.New("no values to write")
)

// allowList is the projection allow-list in table order.
var allowList = []string{ColID, ColCategory, ColStarted, ColDuration}

// Task is a single time slice of work, break, meeting or interrupt.
type Task struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	// Started is the start time in epoch milliseconds.
	Started  int64  `json:"started"`
	Duration *int64 `json:"duration,omitempty"`
}

// Columns returns the allow-listed columns in table order.
func Columns() []string {
	return slices.Clone(allowList)
}

// IsColumn reports whether name is an allow-listed column.
func IsColumn(name string) bool {
	return slices.Contains(allowList, name)
}

// Project narrows a requested projection to the allow-list.
//
// Unknown names are dropped without error and duplicates are removed,
// keeping the caller's order. A nil or fully-narrowed projection selects
// every allow-listed column.
func Project(requested []string) []string {
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		if IsColumn(name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return Columns()
	}
	return out
}

// Fields returns the named columns of t, keyed by column name. A NULL
// duration maps to nil; names outside the allow-list are skipped.
func (t Task) Fields(columns []string) map[string]any {
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		switch col {
		case ColID:
			out[col] = t.ID
		case ColCategory:
			out[col] = t.Category
		case ColStarted:
			out[col] = t.Started
		case ColDuration:
			if t.Duration == nil {
				out[col] = nil
			} else {
				out[col] = *t.Duration
			}
		}
	}
	return out
}
