package provider

import (
	"context"
	"fmt"

	"github.com/roach88/workint/internal/queryir"
	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/schema"
)

// Insert creates a task from values at the collection address.
//
// category is required. started defaults to the provider clock in epoch
// milliseconds. On success the new item address is returned and a change
// is published for it.
func (p *Provider) Insert(ctx context.Context, path string, values schema.Values) (resource.Address, error) {
	addr, err := p.router.Match(path)
	if err != nil {
		return resource.Address{}, fmt.Errorf("insert: %w", err)
	}
	if addr.Kind != resource.Collection {
		return resource.Address{}, fmt.Errorf("insert into %s: %w: not a collection address", addr, ErrInvalidResource)
	}

	if !values.Category.IsSet() {
		return resource.Address{}, fmt.Errorf("insert: %w: %s", ErrMissingRequiredField, schema.ColCategory)
	}
	if err := values.Validate(); err != nil {
		return resource.Address{}, fmt.Errorf("insert: %w", err)
	}
	if !values.Started.IsSet() {
		values.Started = schema.Set(p.now().UnixMilli())
	}

	query, params, err := p.compiler.Insert(values.Assignments())
	if err != nil {
		return resource.Address{}, fmt.Errorf("insert: %w", err)
	}

	id, err := p.store.Insert(ctx, func(id int64) {
		p.notifier.NotifyChange(resource.ItemPath(id))
	}, query, params...)
	if err != nil {
		p.logger.Error("insert failed", "path", addr.Path(), "error", err)
		return resource.Address{}, fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	item := resource.Address{Kind: resource.Item, ID: id}
	p.logger.Debug("inserted", "path", item.Path())
	return item, nil
}

// Update sets values on the tasks at path that match sel.
//
// An item address updates at most that task. Returns the number of rows
// changed; zero is not an error. A change is published for path on every
// successful call, including when no row changed.
func (p *Provider) Update(ctx context.Context, path string, values schema.Values, sel queryir.Selection) (int64, error) {
	addr, err := p.router.Match(path)
	if err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}

	if values.Len() == 0 {
		return 0, fmt.Errorf("update %s: %w", addr, ErrEmptyValues)
	}
	if err := values.Validate(); err != nil {
		return 0, fmt.Errorf("update %s: %w", addr, err)
	}

	query, params, err := p.compiler.Update(values.Assignments(), scoped(addr, sel))
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", addr, err)
	}

	return p.exec(ctx, "update", addr, query, params)
}

// Delete removes the tasks at path that match sel.
//
// An item address deletes at most that task. Returns the number of rows
// removed. A change is published for path on every successful call.
func (p *Provider) Delete(ctx context.Context, path string, sel queryir.Selection) (int64, error) {
	addr, err := p.router.Match(path)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}

	query, params, err := p.compiler.Delete(scoped(addr, sel))
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", addr, err)
	}

	return p.exec(ctx, "delete", addr, query, params)
}

func (p *Provider) exec(ctx context.Context, op string, addr resource.Address, query string, params []any) (int64, error) {
	n, err := p.store.Exec(ctx, func(int64) {
		p.notifier.NotifyChange(addr.Path())
	}, query, params...)
	if err != nil {
		p.logger.Error(op+" failed", "path", addr.Path(), "error", err)
		return 0, fmt.Errorf("%w: %s %s: %w", ErrPersistenceFailure, op, addr, err)
	}

	p.logger.Debug(op, "path", addr.Path(), "count", n)
	return n, nil
}
