package main

import (
	"errors"
	"fmt"
	"strings"

	// Packages
	humanize "github.com/dustin/go-humanize"
	schema "github.com/mutablelogic/go-upload/pkg/schema"
	uploader "github.com/mutablelogic/go-upload/pkg/uploader"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// LimitFlags are the request limits. Sizes accept units, e.g. "10MB".
type LimitFlags struct {
	FileSize      string `name:"file-size" help:"Maximum size of each file (e.g. 10MB)"`
	FieldSize     string `name:"field-size" help:"Maximum size of each field value (default 1MiB)"`
	FieldNameSize int64  `name:"field-name-size" help:"Maximum field name length (default 100)"`
	Fields        int64  `name:"fields" help:"Maximum number of text fields"`
	Files         int64  `name:"files" help:"Maximum number of files"`
	Parts         int64  `name:"parts" help:"Maximum number of parts"`
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// limits returns the request limits for the flags
func (f LimitFlags) limits() (schema.Limits, error) {
	limits := schema.Limits{
		FieldNameSize: f.FieldNameSize,
		Fields:        f.Fields,
		Files:         f.Files,
		Parts:         f.Parts,
	}
	var err error
	if limits.FileSize, err = parseSize(f.FileSize); err != nil {
		return schema.Limits{}, fmt.Errorf("file-size: %w", err)
	}
	if limits.FieldSize, err = parseSize(f.FieldSize); err != nil {
		return schema.Limits{}, fmt.Errorf("field-size: %w", err)
	}
	return limits, nil
}

func parseSize(v string) (int64, error) {
	if v = strings.TrimSpace(v); v == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// middleware returns the middleware for a strategy name and the file field
// declarations
func middleware(u *uploader.Uploader, strategy string, decl []string) (*uploader.Middleware, error) {
	fields := make([]schema.Field, 0, len(decl))
	for _, v := range decl {
		field, err := schema.ParseField(v)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	switch strategy {
	case "any":
		return u.Any(), nil
	case "none":
		return u.None(), nil
	case "single":
		if len(fields) != 1 {
			return nil, errors.New("single strategy requires one field")
		}
		return u.Single(fields[0].Name), nil
	case "array":
		if len(fields) != 1 {
			return nil, errors.New("array strategy requires one field")
		}
		return u.Array(fields[0].Name, fields[0].MaxCount), nil
	case "fields":
		if len(fields) == 0 {
			return nil, errors.New("fields strategy requires at least one field")
		}
		return u.Fields(fields...), nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", strategy)
	}
}
