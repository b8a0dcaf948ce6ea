package queryir

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidPredicate is returned for structurally invalid predicates:
	// nil children, unknown operators, empty field names, unsupported value types.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrUnboundVariable is returned when a bound predicate names a
	// parameter missing from Selection.Args.
	ErrUnboundVariable = errors.New("unbound variable")
)

// Validate checks a Selection for structural problems.
//
// All problems are collected and returned joined, so a caller sees every
// mistake at once. Field names are not checked here; the compiler checks
// them against the table's allow-list.
//
// Validate is a pure function with no side effects.
func Validate(s Selection) error {
	v := &validator{args: s.Args}
	if s.Where != nil {
		v.validatePredicate(s.Where)
	}
	return errors.Join(v.errs...)
}

// Fields returns the distinct field names referenced by p, sorted.
func Fields(p Predicate) []string {
	seen := make(map[string]struct{})
	walk(p, func(field string) { seen[field] = struct{}{} })

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// validator accumulates errors during traversal.
type validator struct {
	args map[string]any
	errs []error
}

func (v *validator) addError(sentinel error, format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addError(ErrInvalidPredicate, "nil predicate")
	case Equals:
		v.validateField(pred.Field)
		v.validateValue(pred.Field, pred.Value)
	case *Equals:
		v.validatePredicate(*pred)
	case BoundEquals:
		v.validateField(pred.Field)
		v.validateBound(pred.BoundVar)
	case *BoundEquals:
		v.validatePredicate(*pred)
	case Compare:
		v.validateField(pred.Field)
		v.validateOp(pred.Op)
		v.validateValue(pred.Field, pred.Value)
	case *Compare:
		v.validatePredicate(*pred)
	case BoundCompare:
		v.validateField(pred.Field)
		v.validateOp(pred.Op)
		v.validateBound(pred.BoundVar)
	case *BoundCompare:
		v.validatePredicate(*pred)
	case IsNull:
		v.validateField(pred.Field)
	case *IsNull:
		v.validatePredicate(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		v.validatePredicate(*pred)
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *Or:
		v.validatePredicate(*pred)
	case Not:
		v.validatePredicate(pred.Predicate)
	case *Not:
		v.validatePredicate(*pred)
	default:
		v.addError(ErrInvalidPredicate, "unsupported predicate type %T", p)
	}
}

func (v *validator) validateField(field string) {
	if field == "" {
		v.addError(ErrInvalidPredicate, "empty field name")
	}
}

func (v *validator) validateOp(op Op) {
	if !op.Valid() {
		v.addError(ErrInvalidPredicate, "unknown operator %q", op)
	}
}

func (v *validator) validateBound(name string) {
	val, ok := v.args[name]
	if !ok {
		v.addError(ErrUnboundVariable, "%q", name)
		return
	}
	if !IsParam(val) {
		v.addError(ErrInvalidPredicate, "parameter %q has unsupported type %T", name, val)
	}
}

func (v *validator) validateValue(field string, val any) {
	if !IsParam(val) {
		v.addError(ErrInvalidPredicate, "field %q compared to unsupported type %T", field, val)
	}
}

// IsParam reports whether val can be passed as a SQL parameter.
// Floats are excluded: every numeric column is an integer.
func IsParam(val any) bool {
	switch val.(type) {
	case nil, string, bool, int, int8, int16, int32, int64, uint8, uint16, uint32:
		return true
	}
	return false
}

// walk calls fn for every field referenced by p.
func walk(p Predicate, fn func(field string)) {
	switch pred := p.(type) {
	case Equals:
		fn(pred.Field)
	case *Equals:
		fn(pred.Field)
	case BoundEquals:
		fn(pred.Field)
	case *BoundEquals:
		fn(pred.Field)
	case Compare:
		fn(pred.Field)
	case *Compare:
		fn(pred.Field)
	case BoundCompare:
		fn(pred.Field)
	case *BoundCompare:
		fn(pred.Field)
	case IsNull:
		fn(pred.Field)
	case *IsNull:
		fn(pred.Field)
	case And:
		for _, sub := range pred.Predicates {
			walk(sub, fn)
		}
	case *And:
		walk(*pred, fn)
	case Or:
		for _, sub := range pred.Predicates {
			walk(sub, fn)
		}
	case *Or:
		walk(*pred, fn)
	case Not:
		walk(pred.Predicate, fn)
	case *Not:
		walk(*pred, fn)
	}
}
