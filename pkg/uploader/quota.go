package uploader

import (
	// Packages
	schema "github.com/mutablelogic/go-upload/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// quota tracks the number of files each field may still accept within a
// request. A negative count is unlimited, and a field seeded with zero
// accepts no files.
type quota struct {
	anyField  bool
	remaining map[string]int
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newQuota(fields []schema.Field, anyField bool) *quota {
	q := &quota{anyField: anyField, remaining: make(map[string]int, len(fields))}
	for _, field := range fields {
		if field.Unlimited() {
			q.remaining[field.Name] = -1
		} else {
			q.remaining[field.Name] = field.MaxCount
		}
	}
	return q
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// take consumes one unit of quota for the field, returning false when
// the field is undeclared or exhausted
func (q *quota) take(field string) bool {
	if q.anyField {
		return true
	}
	n, exists := q.remaining[field]
	switch {
	case !exists, n == 0:
		return false
	case n > 0:
		q.remaining[field] = n - 1
	}
	return true
}
