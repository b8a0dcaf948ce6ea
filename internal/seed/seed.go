// Package seed loads task fixtures from YAML and inserts them.
//
// A fixture is a YAML document with a top-level tasks list:
//
//	tasks:
//	  - category: work
//	    started: 1700000000000
//	    duration: 25
//	  - category: break
//
// Every task is validated against the #Task CUE definition before anything
// is inserted, so a fixture is either fully valid or rejected.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/schema"
)

//go:embed task.cue
var schemaCUE string

// ErrInvalidFixture is returned when a fixture fails to decode or validate.
var ErrInvalidFixture = errors.New("invalid fixture")

// Inserter creates tasks. *provider.Provider implements it.
type Inserter interface {
	Insert(ctx context.Context, path string, values schema.Values) (resource.Address, error)
}

// document is the YAML shape of a fixture.
type document struct {
	Tasks []map[string]any `yaml:"tasks"`
}

// Validator checks decoded tasks against the #Task definition.
type Validator struct {
	task cue.Value
}

// NewValidator compiles the embedded fixture schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaCUE, cue.Filename("task.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile fixture schema: %w", err)
	}
	task := root.LookupPath(cue.ParsePath("#Task"))
	if err := task.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Task: %w", err)
	}
	return &Validator{task: task}, nil
}

// Validate checks one decoded task.
func (v *Validator) Validate(task map[string]any) error {
	value := v.task.Context().Encode(task)
	if err := value.Err(); err != nil {
		return err
	}
	unified := v.task.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return errors.New(cueDetails(err))
	}
	return nil
}

// cueDetails flattens a CUE error list into one line per problem.
func cueDetails(err error) string {
	var buf bytes.Buffer
	for i, e := range cueerrors.Errors(err) {
		if i > 0 {
			buf.WriteString("; ")
		}
		buf.WriteString(e.Error())
	}
	return buf.String()
}

// Decode reads a fixture and returns its tasks as insertable values.
// Nothing is returned unless every task is valid.
func Decode(r io.Reader) ([]schema.Values, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}

	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}

	var errs []error
	out := make([]schema.Values, 0, len(doc.Tasks))
	for i, task := range doc.Tasks {
		if err := v.Validate(task); err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", i, err))
			continue
		}
		values, err := schema.FromMap(task)
		if err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", i, err))
			continue
		}
		out = append(out, values)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, errors.Join(errs...))
	}
	return out, nil
}

// LoadFile decodes the fixture at path.
func LoadFile(path string) ([]schema.Values, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Apply inserts tasks in order and returns their item addresses.
// It stops at the first failure; tasks inserted before it remain.
func Apply(ctx context.Context, ins Inserter, tasks []schema.Values) ([]resource.Address, error) {
	addrs := make([]resource.Address, 0, len(tasks))
	for i, values := range tasks {
		addr, err := ins.Insert(ctx, resource.CollectionPath, values)
		if err != nil {
			return addrs, fmt.Errorf("insert task %d: %w", i, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}
