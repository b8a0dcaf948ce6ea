// Package querysql compiles queryir selections into parameterized SQLite
// statements against the tasks table.
//
// CRITICAL: All values are parameterized (never interpolated).
// CRITICAL: Every column name is checked against the schema allow-list
// before it is written into SQL text.
// CRITICAL: Every SELECT has an ORDER BY with id as the final tiebreaker.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/workint/internal/queryir"
	"github.com/roach88/workint/internal/schema"
)

// DefaultOrder is used when a read carries no sort order: newest first.
var DefaultOrder = []queryir.Order{{Field: schema.ColStarted, Desc: true}}

// SQLCompiler compiles selections to SQL for one table.
type SQLCompiler struct {
	// Table is the table every statement targets.
	Table string

	// IsColumn reports whether a name may appear in SQL text.
	IsColumn func(string) bool
}

// NewSQLCompiler creates a compiler for the tasks table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{
		Table:    schema.Table,
		IsColumn: schema.IsColumn,
	}
}

// Select compiles a read. projection must already be narrowed to the
// allow-list; an empty order uses DefaultOrder.
func (c *SQLCompiler) Select(projection []string, sel queryir.Selection, order []queryir.Order) (string, []any, error) {
	if len(projection) == 0 {
		return "", nil, fmt.Errorf("empty projection")
	}
	for _, col := range projection {
		if err := c.checkColumn(col); err != nil {
			return "", nil, err
		}
	}

	where, params, err := c.where(sel)
	if err != nil {
		return "", nil, err
	}

	orderBy, err := c.orderBy(order)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(projection, ", "),
		c.Table,
		where,
		orderBy)

	return sql, params, nil
}

// Insert compiles an insert of the given assignments.
func (c *SQLCompiler) Insert(values []schema.Assignment) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, schema.ErrEmptyValues
	}

	cols := make([]string, len(values))
	marks := make([]string, len(values))
	params := make([]any, len(values))
	for i, a := range values {
		if err := c.checkColumn(a.Column); err != nil {
			return "", nil, err
		}
		cols[i] = a.Column
		marks[i] = "?"
		params[i] = a.Value
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.Table,
		strings.Join(cols, ", "),
		strings.Join(marks, ", "))

	return sql, params, nil
}

// Update compiles an update of the given assignments over sel.
func (c *SQLCompiler) Update(values []schema.Assignment, sel queryir.Selection) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, schema.ErrEmptyValues
	}

	sets := make([]string, len(values))
	params := make([]any, 0, len(values))
	for i, a := range values {
		if err := c.checkColumn(a.Column); err != nil {
			return "", nil, err
		}
		if a.Column == schema.ColID {
			return "", nil, fmt.Errorf("%w: %s is assigned by the store", schema.ErrInvalidValue, a.Column)
		}
		sets[i] = a.Column + " = ?"
		params = append(params, a.Value)
	}

	where, whereParams, err := c.where(sel)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("UPDATE %s SET %s%s", c.Table, strings.Join(sets, ", "), where)
	return sql, append(params, whereParams...), nil
}

// Delete compiles a delete over sel.
func (c *SQLCompiler) Delete(sel queryir.Selection) (string, []any, error) {
	where, params, err := c.where(sel)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("DELETE FROM %s%s", c.Table, where), params, nil
}

// where validates sel and compiles it to a " WHERE ..." suffix,
// or "" when sel has no predicate.
func (c *SQLCompiler) where(sel queryir.Selection) (string, []any, error) {
	if sel.Where == nil {
		return "", nil, nil
	}
	if err := queryir.Validate(sel); err != nil {
		return "", nil, err
	}
	for _, f := range queryir.Fields(sel.Where) {
		if err := c.checkColumn(f); err != nil {
			return "", nil, err
		}
	}

	sql, params, err := c.compilePredicate(sel.Where, sel.Args)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return " WHERE " + sql, params, nil
}

// orderBy compiles sort keys, appending id as the deterministic tiebreaker.
func (c *SQLCompiler) orderBy(order []queryir.Order) (string, error) {
	if len(order) == 0 {
		order = DefaultOrder
	}

	var parts []string
	hasID := false
	lastDesc := false
	for _, o := range order {
		if err := c.checkColumn(o.Field); err != nil {
			return "", err
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, o.Field+" "+dir)
		hasID = hasID || o.Field == schema.ColID
		lastDesc = o.Desc
	}
	if !hasID {
		dir := "ASC"
		if lastDesc {
			dir = "DESC"
		}
		parts = append(parts, schema.ColID+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

func (c *SQLCompiler) checkColumn(name string) error {
	if c.IsColumn == nil || !c.IsColumn(name) {
		return fmt.Errorf("%w: %q", schema.ErrUnknownColumn, name)
	}
	return nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate, args map[string]any) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compareSQL(pred.Field, queryir.OpEq, pred.Value)
	case *queryir.Equals:
		return compareSQL(pred.Field, queryir.OpEq, pred.Value)
	case queryir.BoundEquals:
		return compareSQL(pred.Field, queryir.OpEq, args[pred.BoundVar])
	case *queryir.BoundEquals:
		return compareSQL(pred.Field, queryir.OpEq, args[pred.BoundVar])
	case queryir.Compare:
		return compareSQL(pred.Field, pred.Op, pred.Value)
	case *queryir.Compare:
		return compareSQL(pred.Field, pred.Op, pred.Value)
	case queryir.BoundCompare:
		return compareSQL(pred.Field, pred.Op, args[pred.BoundVar])
	case *queryir.BoundCompare:
		return compareSQL(pred.Field, pred.Op, args[pred.BoundVar])
	case queryir.IsNull:
		return isNullSQL(pred)
	case *queryir.IsNull:
		return isNullSQL(*pred)
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1", args)
	case *queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1", args)
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0", args)
	case *queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0", args)
	case queryir.Not:
		return c.compileNot(pred, args)
	case *queryir.Not:
		return c.compileNot(*pred, args)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compareSQL compiles "field <op> ?".
func compareSQL(field string, op queryir.Op, value any) (string, []any, error) {
	if !op.Valid() {
		return "", nil, fmt.Errorf("unknown operator %q", op)
	}
	return fmt.Sprintf("%s %s ?", field, op), []any{value}, nil
}

func isNullSQL(pred queryir.IsNull) (string, []any, error) {
	if pred.Negate {
		return pred.Field + " IS NOT NULL", nil, nil
	}
	return pred.Field + " IS NULL", nil, nil
}

// compileJunction compiles AND/OR. Each operand is parenthesized so
// nesting never depends on SQL operator precedence.
func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, sep, empty string, args map[string]any) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	parts := make([]string, 0, len(preds))
	var allParams []any
	for _, pred := range preds {
		sql, params, err := c.compilePredicate(pred, args)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		allParams = append(allParams, params...)
	}
	return strings.Join(parts, sep), allParams, nil
}

func (c *SQLCompiler) compileNot(not queryir.Not, args map[string]any) (string, []any, error) {
	sql, params, err := c.compilePredicate(not.Predicate, args)
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sql + ")", params, nil
}
