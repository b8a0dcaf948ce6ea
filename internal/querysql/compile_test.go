package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/workint/internal/queryir"
	"github.com/roach88/workint/internal/schema"
)

func TestSelect_DefaultOrder(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Select(schema.Columns(), queryir.Selection{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, category, started, duration FROM tasks ORDER BY started DESC, id DESC", sql)
	assert.Empty(t, params)
}

func TestSelect_FilterIsParameterized(t *testing.T) {
	compiler := NewSQLCompiler()

	sel := queryir.Selection{
		Where: queryir.Equals{Field: "category", Value: "work'; DROP TABLE tasks; --"},
	}

	sql, params, err := compiler.Select([]string{"id", "category"}, sel, nil)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE category = ?")
	assert.NotContains(t, sql, "DROP TABLE")
	assert.Equal(t, []any{"work'; DROP TABLE tasks; --"}, params)
}

func TestSelect_ScopedSelection(t *testing.T) {
	compiler := NewSQLCompiler()

	sel := queryir.Selection{
		Where: queryir.BoundEquals{Field: "category", BoundVar: "cat"},
		Args:  map[string]any{"cat": "break"},
	}.Scope("id", int64(7))

	sql, params, err := compiler.Select([]string{"id"}, sel, nil)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE (id = ?) AND (category = ?)")
	assert.Equal(t, []any{int64(7), "break"}, params)
}

func TestSelect_Order(t *testing.T) {
	compiler := NewSQLCompiler()

	tests := []struct {
		name  string
		order []queryir.Order
		want  string
	}{
		{"ascending gets ascending tiebreak", []queryir.Order{{Field: "category"}}, "ORDER BY category ASC, id ASC"},
		{"descending gets descending tiebreak", []queryir.Order{{Field: "duration", Desc: true}}, "ORDER BY duration DESC, id DESC"},
		{"explicit id not duplicated", []queryir.Order{{Field: "id", Desc: true}}, "ORDER BY id DESC"},
		{"multiple keys", []queryir.Order{{Field: "category"}, {Field: "started", Desc: true}}, "ORDER BY category ASC, started DESC, id DESC"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, _, err := compiler.Select([]string{"id"}, queryir.Selection{}, tc.order)
			require.NoError(t, err)
			assert.Contains(t, sql, tc.want)
		})
	}
}

func TestSelect_RejectsUnknownColumns(t *testing.T) {
	compiler := NewSQLCompiler()

	tests := []struct {
		name       string
		projection []string
		sel        queryir.Selection
		order      []queryir.Order
	}{
		{"projection", []string{"id", "secret"}, queryir.Selection{}, nil},
		{"filter", []string{"id"}, queryir.Selection{Where: queryir.IsNull{Field: "owner"}}, nil},
		{"order", []string{"id"}, queryir.Selection{}, []queryir.Order{{Field: "rowid"}}},
		{"injection via order", []string{"id"}, queryir.Selection{}, []queryir.Order{{Field: "id; DROP TABLE tasks"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := compiler.Select(tc.projection, tc.sel, tc.order)
			assert.ErrorIs(t, err, schema.ErrUnknownColumn)
		})
	}
}

func TestSelect_UnboundVariable(t *testing.T) {
	compiler := NewSQLCompiler()

	sel := queryir.Selection{Where: queryir.BoundEquals{Field: "category", BoundVar: "missing"}}
	_, _, err := compiler.Select([]string{"id"}, sel, nil)
	assert.ErrorIs(t, err, queryir.ErrUnboundVariable)
}

func TestCompilePredicate_Shapes(t *testing.T) {
	compiler := NewSQLCompiler()

	tests := []struct {
		name   string
		pred   queryir.Predicate
		want   string
		params []any
	}{
		{"compare", queryir.Compare{Field: "started", Op: queryir.OpGe, Value: int64(10)}, "started >= ?", []any{int64(10)}},
		{"is null", &queryir.IsNull{Field: "duration"}, "duration IS NULL", nil},
		{"is not null", queryir.IsNull{Field: "duration", Negate: true}, "duration IS NOT NULL", nil},
		{"empty and", queryir.And{}, "1 = 1", nil},
		{"empty or", queryir.Or{}, "1 = 0", nil},
		{
			"or of ands",
			queryir.Or{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "category", Value: "work"},
				&queryir.And{Predicates: []queryir.Predicate{
					queryir.Equals{Field: "category", Value: "break"},
					queryir.Compare{Field: "duration", Op: queryir.OpLt, Value: 5},
				}},
			}},
			"(category = ?) OR ((category = ?) AND (duration < ?))",
			[]any{"work", "break", 5},
		},
		{"not", queryir.Not{Predicate: queryir.Equals{Field: "category", Value: "work"}}, "NOT (category = ?)", []any{"work"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := compiler.compilePredicate(tc.pred, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, sql)
			assert.Equal(t, tc.params, params)
		})
	}
}

func TestInsert(t *testing.T) {
	compiler := NewSQLCompiler()

	values := schema.Values{Category: schema.Set("work"), Started: schema.Set(int64(100))}
	sql, params, err := compiler.Insert(values.Assignments())
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO tasks (category, started) VALUES (?, ?)", sql)
	assert.Equal(t, []any{"work", int64(100)}, params)

	_, _, err = compiler.Insert(nil)
	assert.ErrorIs(t, err, schema.ErrEmptyValues)
}

func TestUpdate(t *testing.T) {
	compiler := NewSQLCompiler()

	values := schema.Values{Duration: schema.Null[int64](), Category: schema.Set("meeting")}
	sel := queryir.Selection{Where: queryir.Equals{Field: "category", Value: "work"}}.Scope("id", int64(3))

	sql, params, err := compiler.Update(values.Assignments(), sel)
	require.NoError(t, err)

	assert.Equal(t, "UPDATE tasks SET category = ?, duration = ? WHERE (id = ?) AND (category = ?)", sql)
	assert.Equal(t, []any{"meeting", nil, int64(3), "work"}, params)
}

func TestUpdate_Errors(t *testing.T) {
	compiler := NewSQLCompiler()

	_, _, err := compiler.Update(nil, queryir.Selection{})
	assert.ErrorIs(t, err, schema.ErrEmptyValues)

	_, _, err = compiler.Update([]schema.Assignment{{Column: "id", Value: 1}}, queryir.Selection{})
	assert.ErrorIs(t, err, schema.ErrInvalidValue)
}

func TestDelete(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Delete(queryir.Selection{})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM tasks", sql)
	assert.Empty(t, params)

	sql, params, err = compiler.Delete(queryir.Selection{}.Scope("id", int64(4)))
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM tasks WHERE id = ?", sql)
	assert.Equal(t, []any{int64(4)}, params)
}
