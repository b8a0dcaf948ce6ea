// Package provider is the addressable access layer over the task store.
//
// Every operation names its target with an address (/tasks or /tasks/{id},
// optionally as a content URI). The provider classifies the address,
// compiles the caller's projection, selection and sort order into SQL, runs
// it against the store and, for writes, publishes a change notification for
// the address after the write commits.
//
// Thread-safety model:
//   - every method is safe for concurrent use
//   - reads run on the store's read pool and never wait for writers
//   - writes are serialized by the store; notifications are published in
//     commit order
//
// Nothing is cached between calls.
package provider

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/workint/internal/notify"
	"github.com/roach88/workint/internal/querysql"
	"github.com/roach88/workint/internal/resource"
	"github.com/roach88/workint/internal/store"
)

// DefaultAuthority is the content URI authority of task addresses.
const DefaultAuthority = "de.nenick.workinterruption"

// Provider is the task provider facade.
type Provider struct {
	store    *store.Store
	router   *resource.Router
	compiler *querysql.SQLCompiler
	notifier *notify.Notifier
	now      func() time.Time
	logger   *slog.Logger

	// strictExport closes export streams with the encoding error instead of
	// ending them silently.
	strictExport bool
}

// Option configures a Provider.
type Option func(*Provider)

// WithAuthority sets the content URI authority accepted in addresses.
//
// Default: DefaultAuthority
func WithAuthority(authority string) Option {
	return func(p *Provider) {
		p.router = resource.NewRouter(authority)
	}
}

// WithClock sets the time source used to default the started column.
// Use a fixed clock in tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger. Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStrictExport makes encoding failures during export visible to the
// reader of the stream.
func WithStrictExport(strict bool) Option {
	return func(p *Provider) {
		p.strictExport = strict
	}
}

// New creates a Provider over an open store.
//
// The caller keeps ownership of s and closes it after Close.
func New(s *store.Store, opts ...Option) *Provider {
	p := &Provider{
		store:    s,
		router:   resource.NewRouter(DefaultAuthority),
		compiler: querysql.NewSQLCompiler(),
		now:      time.Now,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.notifier = notify.New(p.logger)
	return p
}

// Router returns the address router.
func (p *Provider) Router() *resource.Router {
	return p.router
}

// Notifier returns the change notifier writes publish to.
func (p *Provider) Notifier() *notify.Notifier {
	return p.notifier
}

// Register subscribes obs to changes at path and its descendants. Content
// URIs are resolved through the router so they match the plain paths
// writes publish on.
func (p *Provider) Register(path string, obs notify.Observer) (*notify.Subscription, error) {
	addr, err := p.router.Match(path)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return p.notifier.Register(addr.Path(), obs)
}

// Type returns the MIME type of the resource at path.
func (p *Provider) Type(path string) (string, error) {
	return p.router.Type(path)
}

// Close stops change delivery. The store is left open.
func (p *Provider) Close() {
	p.notifier.Close()
}
