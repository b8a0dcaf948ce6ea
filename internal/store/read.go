package store

import (
	"context"
	"fmt"

	"github.com/roach88/workint/internal/schema"
)

// Query runs a compiled read on the read pool and returns a Cursor tagged
// with address. Callers are responsible for closing the returned cursor.
func (s *Store) Query(ctx context.Context, address, query string, args ...any) (*Cursor, error) {
	rows, err := s.rdb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	return newCursor(rows, address)
}

// CountTasks returns the number of persisted tasks.
func (s *Store) CountTasks(ctx context.Context) (int64, error) {
	var n int64
	err := s.rdb.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+schema.Table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}
