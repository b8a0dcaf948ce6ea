package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/workint/internal/queryir"
	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/schema"
)

func TestQuery_DefaultOrderNewestFirst(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	mustInsert(t, p, "work", 100)
	mustInsert(t, p, "break", 300)
	mustInsert(t, p, "meeting", 200)

	tasks, err := p.List(ctx, "/tasks", QueryArgs{})
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []int64{300, 200, 100}, []int64{tasks[0].Started, tasks[1].Started, tasks[2].Started})
}

func TestQuery_TiesBrokenByID(t *testing.T) {
	p, _ := newTestProvider(t)

	first := mustInsert(t, p, "work", 100)
	second := mustInsert(t, p, "break", 100)

	tasks, err := p.List(context.Background(), "/tasks", QueryArgs{})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, second, itemPath(tasks[0]))
	assert.Equal(t, first, itemPath(tasks[1]))
}

func TestQuery_CallerOrder(t *testing.T) {
	p, _ := newTestProvider(t)

	mustInsert(t, p, "work", 300)
	mustInsert(t, p, "break", 100)

	order, err := queryir.ParseSort("category")
	require.NoError(t, err)

	tasks, err := p.List(context.Background(), "/tasks", QueryArgs{Order: order})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "break", tasks[0].Category)
	assert.Equal(t, "work", tasks[1].Category)
}

func TestQuery_ProjectionNarrowing(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	mustInsert(t, p, "work", 100)

	tests := []struct {
		name       string
		projection []string
		want       []string
	}{
		{"absent", nil, schema.Columns()},
		{"subset", []string{"category", "started"}, []string{"category", "started"}},
		{"unknown dropped", []string{"category", "colour"}, []string{"category"}},
		{"all unknown", []string{"colour"}, schema.Columns()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, err := p.Query(ctx, "/tasks", QueryArgs{Projection: tt.projection})
			require.NoError(t, err)
			defer cur.Close()
			assert.Equal(t, tt.want, cur.Columns())
		})
	}
}

func TestQuery_ItemScopeAndsCallerPredicate(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	path := mustInsert(t, p, "work", 100)
	mustInsert(t, p, "work", 200)

	tasks, err := p.List(ctx, path, QueryArgs{
		Selection: queryir.Selection{Where: queryir.Equals{Field: "category", Value: "work"}},
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(100), tasks[0].Started)

	tasks, err = p.List(ctx, path, QueryArgs{
		Selection: queryir.Selection{Where: queryir.Equals{Field: "category", Value: "break"}},
	})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestQuery_BoundVariables(t *testing.T) {
	p, _ := newTestProvider(t)
	mustInsert(t, p, "work", 100)
	mustInsert(t, p, "break", 200)
	mustInsert(t, p, "work", 300)

	sel := queryir.Selection{
		Where: queryir.And{Predicates: []queryir.Predicate{
			queryir.BoundEquals{Field: "category", BoundVar: "cat"},
			queryir.BoundCompare{Field: "started", Op: queryir.OpGt, BoundVar: "after"},
		}},
		Args: map[string]any{"cat": "work", "after": 150},
	}

	tasks, err := p.List(context.Background(), "/tasks", QueryArgs{Selection: sel})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(300), tasks[0].Started)
}

func TestQuery_CursorTaggedWithCanonicalPath(t *testing.T) {
	p, _ := newTestProvider(t)
	path := mustInsert(t, p, "work", 100)

	cur, err := p.Query(context.Background(), "content://"+DefaultAuthority+path+"/", QueryArgs{})
	require.NoError(t, err)
	defer cur.Close()

	assert.Equal(t, path, cur.NotificationAddress())
	require.True(t, cur.Next())
}

func TestQuery_Errors(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	tests := []struct {
		name string
		path string
		args QueryArgs
		want error
	}{
		{"invalid path", "/projects", QueryArgs{}, ErrInvalidResource},
		{"non-numeric id", "/tasks/abc", QueryArgs{}, ErrInvalidResource},
		{"foreign authority", "content://other/tasks", QueryArgs{}, ErrInvalidResource},
		{
			"unknown predicate column", "/tasks",
			QueryArgs{Selection: queryir.Selection{Where: queryir.Equals{Field: "colour", Value: "red"}}},
			ErrUnknownColumn,
		},
		{
			"unknown sort column", "/tasks",
			QueryArgs{Order: []queryir.Order{{Field: "colour"}}},
			ErrUnknownColumn,
		},
		{
			"unbound variable", "/tasks",
			QueryArgs{Selection: queryir.Selection{Where: queryir.BoundEquals{Field: "category", BoundVar: "x"}}},
			ErrUnboundVariable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur, err := p.Query(ctx, tt.path, tt.args)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, cur)
		})
	}
}

func TestGet(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	path := mustInsert(t, p, "meeting", 42)

	task, err := p.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "meeting", task.Category)
	assert.Equal(t, int64(42), task.Started)
	assert.Nil(t, task.Duration)

	_, err = p.Get(ctx, "/tasks/999")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = p.Get(ctx, "/tasks")
	assert.ErrorIs(t, err, ErrInvalidResource)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	p, _ := newTestProvider(t)

	tasks, err := p.List(context.Background(), "/tasks", QueryArgs{})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func itemPath(task schema.Task) string {
	return resource.ItemPath(task.ID)
}
