package store

import (
	"context"
	"fmt"
)

// CommitHook runs after a write commits, before the next write may start.
// It receives the inserted id (Insert) or affected row count (Exec).
// Hooks must not block: they run while writes are serialized.
type CommitHook func(result int64)

// Insert runs a compiled insert in its own transaction and returns the
// store-assigned row id. On any failure the transaction is rolled back, so
// no partial row exists. onCommit, when non-nil, runs after the commit.
func (s *Store) Insert(ctx context.Context, onCommit CommitHook, query string, args ...any) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert: last insert id: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("insert: store assigned invalid id %d", id)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert: commit: %w", err)
	}

	if onCommit != nil {
		onCommit(id)
	}
	return id, nil
}

// Exec runs a compiled update or delete in its own transaction and
// returns the number of affected rows. onCommit, when non-nil, runs after
// the commit, including when no row was affected.
func (s *Store) Exec(ctx context.Context, onCommit CommitHook, query string, args ...any) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("exec: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("exec: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("exec: commit: %w", err)
	}

	if onCommit != nil {
		onCommit(n)
	}
	return n, nil
}
