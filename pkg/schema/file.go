package schema

import (
	"io"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// File is one file part of a multipart request. It starts life as a
// placeholder carrying only the field name, and is promoted to a full record
// once storage acknowledges the write.
type File struct {
	FieldName    string `json:"fieldname"`
	OriginalName string `json:"originalname,omitempty"`
	Encoding     string `json:"encoding,omitempty"`
	MimeType     string `json:"mimetype,omitempty"`
	FileInfo

	// Stream is the content of the part. It is only valid while the
	// storage write is in progress.
	Stream io.Reader `json:"-"`
}

// FileInfo is the metadata a storage backend reports for a persisted file.
type FileInfo struct {
	Destination string            `json:"destination,omitempty"` // disk: directory
	Filename    string            `json:"filename,omitempty"`    // disk: name within destination
	Path        string            `json:"path,omitempty"`        // disk: full path
	Key         string            `json:"key,omitempty"`         // blob: object key
	URL         string            `json:"url,omitempty"`         // blob: bucket URL of the object
	ETag        string            `json:"etag,omitempty"`
	Size        int64             `json:"size"`
	Buffer      []byte            `json:"-"` // memory: content
	Meta        map[string]string `json:"meta,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewPlaceholder returns a file record which only carries the field name
func NewPlaceholder(field string) *File {
	return &File{FieldName: field}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithInfo returns a copy of the file with the storage metadata merged in
// and the content stream detached.
func (f File) WithInfo(info *FileInfo) *File {
	if info != nil {
		f.FileInfo = *info
	}
	f.Stream = nil
	return &f
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (f File) String() string {
	return types.Stringify(f)
}

func (i FileInfo) String() string {
	return types.Stringify(i)
}
