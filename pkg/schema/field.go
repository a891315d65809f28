package schema

import (
	"fmt"
	"strconv"
	"strings"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Field declares a form field which may carry files. A negative MaxCount
// means the field accepts any number of files, zero that it accepts none.
type Field struct {
	Name     string `json:"name"`
	MaxCount int    `json:"maxcount"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Unlimited is the MaxCount of a field without a file count limit
const Unlimited = -1

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ParseField parses a field declaration of the form "name" or "name:count".
// A field without a count accepts any number of files.
func ParseField(v string) (Field, error) {
	name, count, found := strings.Cut(v, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Field{}, fmt.Errorf("missing field name in %q", v)
	}
	field := Field{Name: name, MaxCount: Unlimited}
	if found {
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n < 0 {
			return Field{}, fmt.Errorf("invalid max count in %q", v)
		}
		field.MaxCount = n
	}
	return field, nil
}

// Unlimited returns true if the field accepts any number of files
func (f Field) Unlimited() bool {
	return f.MaxCount < 0
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (f Field) String() string {
	return types.Stringify(f)
}
