package uploader

import (
	"errors"
	"net/http"

	// Packages
	upload "github.com/mutablelogic/go-upload"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	zerolog "github.com/rs/zerolog"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for uploader configuration.
type Opt func(*opts) error

// ErrorHandler writes the response for a request which failed processing
type ErrorHandler func(http.ResponseWriter, *http.Request, error)

type opts struct {
	storage      upload.Storage
	dest         string
	limits       schema.Limits
	filter       upload.Filter
	preservePath bool
	logger       zerolog.Logger
	tracer       trace.Tracer
	errorHandler ErrorHandler
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithStorage sets the storage for accepted files. It takes precedence
// over WithDest.
func WithStorage(storage upload.Storage) Opt {
	return func(o *opts) error {
		if storage == nil {
			return errors.New("storage is required")
		}
		o.storage = storage
		return nil
	}
}

// WithDest stores files on disk in the given directory
func WithDest(dir string) Opt {
	return func(o *opts) error {
		o.dest = dir
		return nil
	}
}

// WithLimits sets the limits applied to each request
func WithLimits(limits schema.Limits) Opt {
	return func(o *opts) error {
		o.limits = limits
		return nil
	}
}

// WithFilter sets the function which decides which files are stored
func WithFilter(filter upload.Filter) Opt {
	return func(o *opts) error {
		if filter == nil {
			return errors.New("filter is required")
		}
		o.filter = filter
		return nil
	}
}

// WithPreservePath keeps directory components of client filenames
func WithPreservePath() Opt {
	return func(o *opts) error {
		o.preservePath = true
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Opt {
	return func(o *opts) error {
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used for storage operations.
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = tracer
		return nil
	}
}

// WithErrorHandler sets the function which writes the response when
// Middleware.Handler fails to process a request
func WithErrorHandler(fn ErrorHandler) Opt {
	return func(o *opts) error {
		if fn == nil {
			return errors.New("error handler is required")
		}
		o.errorHandler = fn
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	// Set defaults
	o := opts{
		filter:       upload.AllowAll,
		logger:       zerolog.Nop(),
		errorHandler: DefaultErrorHandler,
	}

	// Apply options
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}

	// Return success
	return o, nil
}
