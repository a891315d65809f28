package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	// Packages
	uuid "github.com/google/uuid"
	upload "github.com/mutablelogic/go-upload"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// NameFunc returns a directory or file name for a file being written
type NameFunc func(context.Context, *schema.File) (string, error)

// DiskOpt configures disk storage
type DiskOpt func(*Disk) error

// Disk writes each file to its own path on the local filesystem
type Disk struct {
	destination NameFunc
	filename    NameFunc
}

var _ upload.Storage = (*Disk)(nil)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewDisk returns disk storage. Without options files are written to the
// system temporary directory with random names.
func NewDisk(opts ...DiskOpt) (*Disk, error) {
	disk := &Disk{
		destination: func(context.Context, *schema.File) (string, error) {
			return os.TempDir(), nil
		},
		filename: RandomName,
	}
	for _, opt := range opts {
		if err := opt(disk); err != nil {
			return nil, err
		}
	}
	return disk, nil
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithDestination sets a fixed directory, creating it if necessary
func WithDestination(dir string) DiskOpt {
	return func(d *Disk) error {
		if dir == "" {
			return errors.New("destination directory is required")
		}
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return err
		}
		d.destination = func(context.Context, *schema.File) (string, error) {
			return dir, nil
		}
		return nil
	}
}

// WithDestinationFunc sets a function which returns the directory for each
// file. The directory must exist.
func WithDestinationFunc(fn NameFunc) DiskOpt {
	return func(d *Disk) error {
		if fn == nil {
			return errors.New("destination function is required")
		}
		d.destination = fn
		return nil
	}
}

// WithFilenameFunc sets a function which returns the name for each file
func WithFilenameFunc(fn NameFunc) DiskOpt {
	return func(d *Disk) error {
		if fn == nil {
			return errors.New("filename function is required")
		}
		d.filename = fn
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RandomName returns 32 random hex characters
func RandomName(context.Context, *schema.File) (string, error) {
	return strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

// WriteFile copies the content to destination/filename. A partially
// written file is removed when the copy fails.
func (d *Disk) WriteFile(ctx context.Context, file *schema.File) (*schema.FileInfo, error) {
	dir, err := d.destination(ctx, file)
	if err != nil {
		return nil, err
	}
	name, err := d.filename(ctx, file)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name)

	w, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return nil, err
	}
	n, err := io.Copy(w, file.Stream)
	if err != nil {
		err = errors.Join(err, w.Close(), os.Remove(path))
		return nil, err
	} else if err := w.Close(); err != nil {
		return nil, errors.Join(err, os.Remove(path))
	}

	return &schema.FileInfo{
		Destination: dir,
		Filename:    name,
		Path:        path,
		Size:        n,
	}, nil
}

// RemoveFile deletes the file at its recorded path
func (d *Disk) RemoveFile(_ context.Context, file *schema.File) error {
	if file.Path == "" {
		return errors.New("file has no path")
	}
	return os.Remove(file.Path)
}
