package queryir

// Predicate represents a filter condition on task rows.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal
//   - BoundEquals: field = bound parameter
//   - Compare: field <op> literal
//   - BoundCompare: field <op> bound parameter
//   - IsNull: field IS [NOT] NULL
//   - And / Or: conjunction / disjunction
//   - Not: negation
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Op is a comparison operator.
type Op string

// Comparison operators.
const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Valid reports whether op is a known operator.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Equals is a field-equals-literal predicate.
//
//	<field> = ?
//
// Value must be a string, an integer type or bool. A nil Value never
// matches (SQL NULL semantics); use IsNull for NULL checks.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// BoundEquals is a field-equals-parameter predicate. BoundVar names an
// entry of Selection.Args.
//
//	<field> = ?   -- ? taken from Args[BoundVar]
type BoundEquals struct {
	Field    string
	BoundVar string
}

func (BoundEquals) predicateNode() {}

// Compare is a field-operator-literal predicate.
type Compare struct {
	Field string
	Op    Op
	Value any
}

func (Compare) predicateNode() {}

// BoundCompare is a field-operator-parameter predicate.
type BoundCompare struct {
	Field    string
	Op       Op
	BoundVar string
}

func (BoundCompare) predicateNode() {}

// IsNull matches rows whose field is NULL, or NOT NULL when Negate is set.
type IsNull struct {
	Field  string
	Negate bool
}

func (IsNull) predicateNode() {}

// And is a conjunction. Empty Predicates is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction. Empty Predicates is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Order is one sort key.
type Order struct {
	Field string
	Desc  bool
}

// Selection is a caller-supplied filter with its bound parameters.
// The zero Selection selects every row.
type Selection struct {
	Where Predicate
	Args  map[string]any
}

// Scope returns a Selection that additionally requires field = value,
// ANDed with (never replacing) the caller's predicate.
func (s Selection) Scope(field string, value any) Selection {
	scoped := Equals{Field: field, Value: value}
	if s.Where == nil {
		return Selection{Where: scoped, Args: s.Args}
	}
	return Selection{
		Where: And{Predicates: []Predicate{scoped, s.Where}},
		Args:  s.Args,
	}
}

// AllOf combines predicates with And, dropping nils.
// Returns nil when nothing remains and the single predicate when only one does.
func AllOf(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
