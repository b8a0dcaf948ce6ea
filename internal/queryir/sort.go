package queryir

import (
	"fmt"
	"strings"
)

// ParseSort parses a sort string into Orders.
//
// Two spellings are accepted, and may be mixed:
//
//	"-started,id"              leading '-' means descending
//	"started DESC, id ASC"     SQL-style direction keyword
//
// An empty string returns nil (use the default ordering).
func ParseSort(s string) ([]Order, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var orders []Order
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("%w: invalid sort key %q", ErrInvalidPredicate, strings.TrimSpace(part))
		}

		o := Order{Field: fields[0]}
		if strings.HasPrefix(o.Field, "-") {
			o.Field = strings.TrimPrefix(o.Field, "-")
			o.Desc = true
		}
		if len(fields) == 2 {
			switch strings.ToUpper(fields[1]) {
			case "ASC":
				o.Desc = false
			case "DESC":
				o.Desc = true
			default:
				return nil, fmt.Errorf("%w: invalid sort direction %q", ErrInvalidPredicate, fields[1])
			}
		}
		if o.Field == "" {
			return nil, fmt.Errorf("%w: invalid sort key %q", ErrInvalidPredicate, strings.TrimSpace(part))
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// FormatSort renders orders in the "-field" spelling accepted by ParseSort.
func FormatSort(orders []Order) string {
	parts := make([]string, len(orders))
	for i, o := range orders {
		if o.Desc {
			parts[i] = "-" + o.Field
		} else {
			parts[i] = o.Field
		}
	}
	return strings.Join(parts, ",")
}
