package formdata

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/client"
	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// GuardFunc rejects requests before any fetching happens. Returning an error
// that implements HTTPError controls the response status.
type GuardFunc func(r *http.Request) error

// StateCache stores resolved state between requests. The sqlite store
// satisfies it.
type StateCache interface {
	GetState(ctx context.Context, formID, submissionID string) (submission.State, error)
	SaveState(ctx context.Context, formID, submissionID string, state submission.State) error
}

// Options configures the component.
type Options struct {
	RoutePath string
	Fetcher   client.Fetcher
	Cache     StateCache
	Guard     GuardFunc
	Parser    *schema.Parser
	Logger    *zap.Logger
}

// OptionFn mutates Options during construction.
type OptionFn func(*Options)

// DefaultOptions returns the component defaults.
func DefaultOptions() Options {
	return Options{
		RoutePath: "/api/form-data",
		Logger:    zap.NewNop(),
	}
}

// NewOptions applies overrides on top of defaults and normalizes the result.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/form-data"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Parser == nil {
		opts.Parser = schema.NewParser(schema.WithLogger(opts.Logger))
	}
	return opts
}

// WithRoutePath overrides the mount sub-path.
func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

// WithFetcher sets the API client used to load forms and submissions.
func WithFetcher(fetcher client.Fetcher) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Fetcher = fetcher
	}
}

// WithCache enables read-through caching of resolved state.
func WithCache(cache StateCache) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Cache = cache
	}
}

// WithGuard installs a request guard.
func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithParser overrides the schema parser.
func WithParser(parser *schema.Parser) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Parser = parser
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
