// Package resource classifies task addresses.
//
// Two address shapes exist:
//
//	/tasks        the collection of all tasks
//	/tasks/{id}   a single task, {id} a non-negative decimal integer
//
// Addresses may also be written as content URIs
// (content://<authority>/tasks/{id}); the authority must match the router's.
// Every classified address has a canonical path form which is used for
// change notification.
package resource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidResource is returned for addresses matching no route.
var ErrInvalidResource = errors.New("invalid resource")

// Kind is the classification of an address.
type Kind int

const (
	// NoMatch is the zero Kind; never returned with a nil error.
	NoMatch Kind = iota
	// Collection addresses every task.
	Collection
	// Item addresses a single task by id.
	Item
)

func (k Kind) String() string {
	switch k {
	case Collection:
		return "collection"
	case Item:
		return "item"
	default:
		return "no-match"
	}
}

// Scheme is the URI scheme accepted in front of an authority.
const Scheme = "content"

// PathTasks is the first path segment of every task address.
const PathTasks = "tasks"

// idWildcard matches one numeric path segment.
const idWildcard = "#"

// Address is a classified task address.
type Address struct {
	Kind Kind
	// ID is the task id for Item addresses, zero otherwise.
	ID int64
}

// Path returns the canonical path of the address.
func (a Address) Path() string {
	if a.Kind == Item {
		return ItemPath(a.ID)
	}
	return CollectionPath
}

func (a Address) String() string { return a.Path() }

// CollectionPath is the canonical collection address.
const CollectionPath = "/" + PathTasks

// ItemPath returns the canonical address of the task with the given id.
func ItemPath(id int64) string {
	return CollectionPath + "/" + strconv.FormatInt(id, 10)
}

type route struct {
	segments []string
	kind     Kind
}

// routes is the match table. Built once, never mutated.
var routes = []route{
	{segments: []string{PathTasks}, kind: Collection},
	{segments: []string{PathTasks, idWildcard}, kind: Item},
}

// Router classifies addresses. It is immutable and safe for concurrent use.
type Router struct {
	authority string
}

// NewRouter returns a Router accepting content URIs for authority.
// An empty authority accepts bare paths only.
func NewRouter(authority string) *Router {
	return &Router{authority: authority}
}

// Authority returns the content URI authority of the router.
func (r *Router) Authority() string {
	return r.authority
}

// Match classifies address into exactly one Kind.
// Any address matching no route fails with ErrInvalidResource.
func (r *Router) Match(address string) (Address, error) {
	path, err := r.stripAuthority(address)
	if err != nil {
		return Address{}, err
	}

	segments := splitPath(path)
	for _, rt := range routes {
		id, ok := rt.match(segments)
		if ok {
			return Address{Kind: rt.kind, ID: id}, nil
		}
	}
	return Address{}, fmt.Errorf("%w: %q", ErrInvalidResource, address)
}

// ContentURI renders addr as a content URI under the router's authority.
func (r *Router) ContentURI(addr Address) string {
	if r.authority == "" {
		return addr.Path()
	}
	return Scheme + "://" + r.authority + addr.Path()
}

func (r *Router) stripAuthority(address string) (string, error) {
	prefix := Scheme + "://"
	if !strings.HasPrefix(address, prefix) {
		return address, nil
	}
	rest := strings.TrimPrefix(address, prefix)
	authority, path, _ := strings.Cut(rest, "/")
	if r.authority == "" || authority != r.authority {
		return "", fmt.Errorf("%w: unknown authority %q", ErrInvalidResource, authority)
	}
	return "/" + path, nil
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func (rt route) match(segments []string) (int64, bool) {
	if len(segments) != len(rt.segments) {
		return 0, false
	}
	var id int64
	for i, want := range rt.segments {
		got := segments[i]
		if want != idWildcard {
			if got != want {
				return 0, false
			}
			continue
		}
		if !isDigits(got) {
			return 0, false
		}
		n, err := strconv.ParseInt(got, 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	}
	return id, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
