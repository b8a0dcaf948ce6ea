package store

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/roach88/workint/internal/schema"
)

// Cursor is a lazy, forward-only sequence of task rows.
//
// A Cursor holds a read connection until Close is called; callers must
// always Close it. It cannot be rewound: re-issue the query instead.
//
// A Cursor is tagged with the address it was read from, so observers can
// watch that address for changes to the underlying rows.
type Cursor struct {
	rows    *sql.Rows
	columns []string
	address string

	closeOnce sync.Once
	closeErr  error
}

func newCursor(rows *sql.Rows, address string) (*Cursor, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return &Cursor{rows: rows, columns: cols, address: address}, nil
}

// Columns returns the projected column names in result order.
func (c *Cursor) Columns() []string {
	return append([]string(nil), c.columns...)
}

// NotificationAddress returns the address whose changes affect this result.
func (c *Cursor) NotificationAddress() string {
	return c.address
}

// Next advances to the next row. Returns false at the end or on error;
// check Err afterwards.
func (c *Cursor) Next() bool {
	return c.rows.Next()
}

// Err returns the error, if any, encountered during iteration.
func (c *Cursor) Err() error {
	return c.rows.Err()
}

// Scan copies the current row's columns into dest, in Columns order.
func (c *Cursor) Scan(dest ...any) error {
	return c.rows.Scan(dest...)
}

// Task scans the current row into a Task. Columns absent from the
// projection keep their zero value; a NULL duration leaves Duration nil.
func (c *Cursor) Task() (schema.Task, error) {
	var (
		t        schema.Task
		category sql.NullString
		started  sql.NullInt64
		duration sql.NullInt64
	)

	dest := make([]any, len(c.columns))
	for i, col := range c.columns {
		switch col {
		case schema.ColID:
			dest[i] = &t.ID
		case schema.ColCategory:
			dest[i] = &category
		case schema.ColStarted:
			dest[i] = &started
		case schema.ColDuration:
			dest[i] = &duration
		default:
			var discard any
			dest[i] = &discard
		}
	}

	if err := c.rows.Scan(dest...); err != nil {
		return schema.Task{}, fmt.Errorf("scan task: %w", err)
	}

	t.Category = category.String
	t.Started = started.Int64
	if duration.Valid {
		d := duration.Int64
		t.Duration = &d
	}
	return t, nil
}

// All drains the cursor into a slice and closes it.
// Returns an empty slice (not nil) when there are no rows.
func (c *Cursor) All() ([]schema.Task, error) {
	defer c.Close()

	tasks := []schema.Task{}
	for c.Next() {
		t, err := c.Task()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Close releases the cursor's connection. Safe to call more than once.
func (c *Cursor) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rows.Close()
	})
	return c.closeErr
}
