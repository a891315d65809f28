package schema

import (
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Form is the result of processing a multipart request. Which file
// container is populated depends on the strategy.
type Form struct {
	Strategy Strategy `json:"strategy"`

	// Body holds the text fields
	Body Body `json:"body"`

	// File is populated for StrategyValue
	File *File `json:"file,omitempty"`

	// Files is populated for StrategyArray
	Files []*File `json:"files,omitempty"`

	// FieldFiles is populated for StrategyObject. A field with no files
	// is absent.
	FieldFiles map[string][]*File `json:"fieldFiles,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewForm returns an empty form for a strategy
func NewForm(strategy Strategy) *Form {
	return &Form{
		Strategy: strategy,
		Body:     make(Body),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// All returns every file on the form, in container order. For
// StrategyObject the fields are not ordered relative to each other.
func (f *Form) All() []*File {
	switch f.Strategy {
	case StrategyValue:
		if f.File != nil {
			return []*File{f.File}
		}
	case StrategyArray:
		return f.Files
	case StrategyObject:
		var result []*File
		for _, files := range f.FieldFiles {
			result = append(result, files...)
		}
		return result
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (f Form) String() string {
	return types.Stringify(f)
}
