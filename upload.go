package upload

import (
	"context"
	"net/http"

	// Packages
	schema "github.com/mutablelogic/go-upload/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Storage persists the content of accepted file parts. A single storage may
// be shared across concurrent requests; calls for the same request may also
// overlap.
type Storage interface {
	// WriteFile consumes file.Stream and returns the metadata which is
	// merged into the file record. It is called once per accepted file.
	WriteFile(context.Context, *schema.File) (*schema.FileInfo, error)

	// RemoveFile undoes a successful WriteFile during rollback
	RemoveFile(context.Context, *schema.File) error
}

// Filter decides whether an accepted file part is stored. Returning false
// discards the part; returning an error aborts the request.
type Filter func(context.Context, *schema.File) (bool, error)

type requestKey struct{}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// AllowAll is the default filter, which includes every file
func AllowAll(context.Context, *schema.File) (bool, error) {
	return true, nil
}

// WithRequest returns a context carrying the request being processed, for
// use by filters and storage functions.
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// Request returns the request being processed, or nil
func Request(ctx context.Context) *http.Request {
	if r, ok := ctx.Value(requestKey{}).(*http.Request); ok {
		return r
	}
	return nil
}
