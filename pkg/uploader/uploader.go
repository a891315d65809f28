// Package uploader processes multipart/form-data requests: text fields are
// merged into a body, files are passed to a storage as they arrive, and
// files already stored are removed again when the request fails.
package uploader

import (
	// Packages
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	storage "github.com/mutablelogic/go-upload/pkg/storage"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Uploader holds the configuration shared by its middleware
type Uploader struct {
	opts
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates an uploader. Files are kept in memory unless a storage or
// destination directory is set.
func New(opts ...Opt) (*Uploader, error) {
	self := new(Uploader)

	// Apply options
	if opt, err := applyOpts(opts); err != nil {
		return nil, err
	} else {
		self.opts = opt
	}

	// Set the storage
	switch {
	case self.storage != nil:
		// Set by option
	case self.dest != "":
		disk, err := storage.NewDisk(storage.WithDestination(self.dest))
		if err != nil {
			return nil, err
		}
		self.storage = disk
	default:
		self.storage = storage.NewMemory()
	}

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Single accepts at most one file on the named field. The file is returned
// in Form.File.
func (u *Uploader) Single(name string) *Middleware {
	return u.middleware(schema.StrategyValue, []schema.Field{{Name: name, MaxCount: 1}}, false)
}

// Array accepts up to maxCount files on the named field, or any number
// when maxCount is schema.Unlimited. The files are returned in Form.Files
// in the order received.
func (u *Uploader) Array(name string, maxCount int) *Middleware {
	return u.middleware(schema.StrategyArray, []schema.Field{{Name: name, MaxCount: maxCount}}, false)
}

// Fields accepts files on the declared fields. The files are returned in
// Form.FieldFiles, grouped by field name.
func (u *Uploader) Fields(fields ...schema.Field) *Middleware {
	return u.middleware(schema.StrategyObject, fields, false)
}

// None accepts text fields only. Any file fails the request.
func (u *Uploader) None() *Middleware {
	return u.middleware(schema.StrategyNone, nil, false)
}

// Any accepts any number of files on any field. The files are returned in
// Form.Files in the order received.
func (u *Uploader) Any() *Middleware {
	return u.middleware(schema.StrategyArray, nil, true)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (u *Uploader) middleware(strategy schema.Strategy, fields []schema.Field, anyField bool) *Middleware {
	return &Middleware{
		Uploader: u,
		strategy: strategy,
		fields:   fields,
		anyField: anyField,
	}
}
