package schema

import (
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Limits bounds what a single multipart request may contain. A zero value
// means "not configured": counts are then unlimited, and the field name and
// value sizes fall back to DefaultFieldNameSize and DefaultFieldSize.
type Limits struct {
	FieldNameSize int64 `json:"fieldNameSize,omitempty"` // max field name length in bytes
	FieldSize     int64 `json:"fieldSize,omitempty"`     // max field value length in bytes
	Fields        int64 `json:"fields,omitempty"`        // max number of non-file fields
	FileSize      int64 `json:"fileSize,omitempty"`      // max file size in bytes
	Files         int64 `json:"files,omitempty"`         // max number of file parts
	Parts         int64 `json:"parts,omitempty"`         // max number of parts (fields + files)
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// MaxFieldNameSize returns the effective field name limit
func (l Limits) MaxFieldNameSize() int64 {
	if l.FieldNameSize > 0 {
		return l.FieldNameSize
	}
	return DefaultFieldNameSize
}

// MaxFieldSize returns the effective field value limit
func (l Limits) MaxFieldSize() int64 {
	if l.FieldSize > 0 {
		return l.FieldSize
	}
	return DefaultFieldSize
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (l Limits) String() string {
	return types.Stringify(l)
}
