package provider

import (
	"context"
	"fmt"

	"github.com/roach88/workint/internal/queryir"
	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/schema"
	"github.com/roach88/workint/internal/store"
)

// QueryArgs are the optional parts of a read.
type QueryArgs struct {
	// Projection names the columns to return. Unknown names are dropped;
	// nil, or nothing left after dropping, returns every column.
	Projection []string

	// Selection filters rows. For item addresses it is ANDed with id = ?.
	Selection queryir.Selection

	// Order sorts rows. Nil sorts by started descending.
	Order []queryir.Order
}

// Query reads the tasks at path.
//
// The returned Cursor is tagged with the canonical path of the address so
// callers can register for its changes. The caller must Close it.
func (p *Provider) Query(ctx context.Context, path string, args QueryArgs) (*store.Cursor, error) {
	addr, err := p.router.Match(path)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	sel := scoped(addr, args.Selection)
	projection := schema.Project(args.Projection)

	query, params, err := p.compiler.Select(projection, sel, args.Order)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", addr, err)
	}

	cur, err := p.store.Query(ctx, addr.Path(), query, params...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	p.logger.Debug("query", "path", addr.Path(), "columns", projection)
	return cur, nil
}

// Get returns the task at an item address.
// Returns ErrResourceNotFound when no task has the id.
func (p *Provider) Get(ctx context.Context, path string) (schema.Task, error) {
	addr, err := p.router.Match(path)
	if err != nil {
		return schema.Task{}, fmt.Errorf("get: %w", err)
	}
	if addr.Kind != resource.Item {
		return schema.Task{}, fmt.Errorf("get %s: %w: not an item address", addr, ErrInvalidResource)
	}

	tasks, err := p.List(ctx, path, QueryArgs{})
	if err != nil {
		return schema.Task{}, err
	}
	if len(tasks) == 0 {
		return schema.Task{}, fmt.Errorf("get %s: %w", addr, ErrResourceNotFound)
	}
	return tasks[0], nil
}

// List runs Query and collects every row.
func (p *Provider) List(ctx context.Context, path string, args QueryArgs) ([]schema.Task, error) {
	cur, err := p.Query(ctx, path, args)
	if err != nil {
		return nil, err
	}

	tasks, err := cur.All()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}
	return tasks, nil
}

// scoped restricts sel to the row an item address names.
func scoped(addr resource.Address, sel queryir.Selection) queryir.Selection {
	if addr.Kind == resource.Item {
		return sel.Scope(schema.ColID, addr.ID)
	}
	return sel
}
