package storage

import (
	"context"
	"io"

	// Packages
	upload "github.com/mutablelogic/go-upload"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Memory keeps file content in a buffer on the file record
type Memory struct{}

var _ upload.Storage = (*Memory)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewMemory() *Memory {
	return new(Memory)
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WriteFile reads the content into memory
func (*Memory) WriteFile(ctx context.Context, file *schema.File) (*schema.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(file.Stream)
	if err != nil {
		return nil, err
	}
	return &schema.FileInfo{
		Buffer: data,
		Size:   int64(len(data)),
	}, nil
}

// RemoveFile drops the buffer
func (*Memory) RemoveFile(_ context.Context, file *schema.File) error {
	file.Buffer = nil
	return nil
}
