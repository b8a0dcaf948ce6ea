package resource

import (
	"mime"
	"strings"
)

// MIME types of task addresses.
const (
	CollectionType = "vnd.workint.cursor.dir/vnd.workint.task"
	ItemType       = "vnd.workint.cursor.item/vnd.workint.task"
)

// MIMETextPlain is the only stream type a task can be exported as.
const MIMETextPlain = "text/plain"

// itemStreamTypes are the stream types offered for Item addresses.
var itemStreamTypes = []string{MIMETextPlain}

// Type returns the MIME type of the resource at address.
func (r *Router) Type(address string) (string, error) {
	addr, err := r.Match(address)
	if err != nil {
		return "", err
	}
	if addr.Kind == Item {
		return ItemType, nil
	}
	return CollectionType, nil
}

// StreamTypes returns the stream MIME types of address that match filter.
//
// Collections offer no stream types: the result is empty with a nil error.
// Items offer text/plain when filter accepts it.
func (r *Router) StreamTypes(address, filter string) ([]string, error) {
	addr, err := r.Match(address)
	if err != nil {
		return nil, err
	}
	if addr.Kind != Item {
		return nil, nil
	}
	return FilterMIMETypes(itemStreamTypes, filter), nil
}

// FilterMIMETypes returns the entries of offered matched by filter.
// The filter may use wildcards (*/*, text/*) and carry parameters,
// which are ignored for matching.
func FilterMIMETypes(offered []string, filter string) []string {
	var out []string
	for _, t := range offered {
		if MatchMIMEType(t, filter) {
			out = append(out, t)
		}
	}
	return out
}

// MatchMIMEType reports whether concrete satisfies the desired type.
func MatchMIMEType(concrete, desired string) bool {
	desired = mediaType(desired)
	concrete = mediaType(concrete)
	if desired == "" || concrete == "" {
		return false
	}
	if desired == "*/*" {
		return true
	}

	dType, dSub, ok := strings.Cut(desired, "/")
	if !ok {
		return false
	}
	cType, cSub, ok := strings.Cut(concrete, "/")
	if !ok {
		return false
	}
	if dType != cType {
		return false
	}
	return dSub == "*" || dSub == cSub
}

// Charset returns the charset parameter of a MIME type, or "" when absent.
func Charset(mimeType string) string {
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

func mediaType(s string) string {
	mt, _, err := mime.ParseMediaType(s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return mt
}
