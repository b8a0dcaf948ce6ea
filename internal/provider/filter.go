package provider

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/workint/internal/queryir"
	"github.com/roach88/workint/internal/schema"
)

// Filter parameter names, shared by the HTTP query string and CLI flags.
const (
	ParamCategory      = "category"
	ParamStartedAfter  = "started_after"
	ParamStartedBefore = "started_before"
)

// Filter is the common task filter of the outer surfaces.
// Zero fields do not filter.
type Filter struct {
	Category string
	// StartedAfter keeps tasks with started > StartedAfter.
	StartedAfter *int64
	// StartedBefore keeps tasks with started < StartedBefore.
	StartedBefore *int64
}

// ParseFilter builds a Filter from string parameters keyed by the Param
// names. Empty values are ignored.
func ParseFilter(params map[string]string) (Filter, error) {
	var f Filter
	f.Category = strings.TrimSpace(params[ParamCategory])

	for name, dst := range map[string]**int64{
		ParamStartedAfter:  &f.StartedAfter,
		ParamStartedBefore: &f.StartedBefore,
	} {
		raw := strings.TrimSpace(params[name])
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidValue, name, raw)
		}
		*dst = &n
	}
	return f, nil
}

// Selection compiles the filter to a selection with bound parameters.
func (f Filter) Selection() queryir.Selection {
	var preds []queryir.Predicate
	args := map[string]any{}

	if f.Category != "" {
		preds = append(preds, queryir.BoundEquals{Field: schema.ColCategory, BoundVar: ParamCategory})
		args[ParamCategory] = f.Category
	}
	if f.StartedAfter != nil {
		preds = append(preds, queryir.BoundCompare{Field: schema.ColStarted, Op: queryir.OpGt, BoundVar: ParamStartedAfter})
		args[ParamStartedAfter] = *f.StartedAfter
	}
	if f.StartedBefore != nil {
		preds = append(preds, queryir.BoundCompare{Field: schema.ColStarted, Op: queryir.OpLt, BoundVar: ParamStartedBefore})
		args[ParamStartedBefore] = *f.StartedBefore
	}

	if len(preds) == 0 {
		return queryir.Selection{}
	}
	return queryir.Selection{Where: queryir.AllOf(preds...), Args: args}
}
