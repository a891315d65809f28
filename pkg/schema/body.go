package schema

import (
	"regexp"
	"strconv"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Body holds the text fields of a multipart request. Values are a string,
// a []any of repeated values, or a nested map[string]any built from indexed
// field names such as "user[name]" or "tags[0]".
type Body map[string]any

type pathStep struct {
	key      string
	index    int
	last     bool
	append   bool
	nextList bool
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// maxListIndex bounds the list growth an indexed field name can cause.
// Larger indexes are stored as map keys instead.
const maxListIndex = 1000

var (
	reFirstKey  = regexp.MustCompile(`^[^\[]*`)
	reIndexPath = regexp.MustCompile(`^\[(\d+)\]`)
	reKeyPath   = regexp.MustCompile(`^\[([^\]]+)\]`)
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Append merges a field value into the body. Repeated flat names accumulate
// into a list in arrival order; bracketed names build nested structures.
// A name which cannot be parsed as a path is stored verbatim.
func (b Body) Append(name, value string) {
	steps := parsePath(name)
	first := steps[0]
	b[first.key] = assign(b[first.key], steps, value)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func parsePath(name string) []pathStep {
	failure := []pathStep{{key: name, last: true}}

	first := reFirstKey.FindString(name)
	if first == "" {
		return failure
	}

	steps := []pathStep{{key: first}}
	tail := &steps[0]
	for pos := len(first); pos < len(name); {
		rest := name[pos:]
		if len(rest) >= 2 && rest[0] == '[' && rest[1] == ']' {
			pos += 2
			tail.append = true
			if pos != len(name) {
				return failure
			}
			continue
		}
		if m := reIndexPath.FindStringSubmatch(rest); m != nil {
			index, err := strconv.Atoi(m[1])
			if err != nil {
				return failure
			}
			pos += len(m[0])
			tail.nextList = true
			steps = append(steps, pathStep{key: m[1], index: index})
			tail = &steps[len(steps)-1]
			continue
		}
		if m := reKeyPath.FindStringSubmatch(rest); m != nil {
			pos += len(m[0])
			tail.nextList = false
			steps = append(steps, pathStep{key: m[1]})
			tail = &steps[len(steps)-1]
			continue
		}
		return failure
	}
	tail.last = true
	return steps
}

// assign returns the new value for the slot addressed by steps[0], given
// the value currently held there.
func assign(current any, steps []pathStep, value string) any {
	step := steps[0]
	if step.last {
		return assignLast(current, step.append, value)
	}

	next := steps[1]
	switch container := prepare(current, step.nextList).(type) {
	case []any:
		if next.index >= maxListIndex {
			object := prepare(container, false).(map[string]any)
			object[next.key] = assign(object[next.key], steps[1:], value)
			return object
		}
		for len(container) <= next.index {
			container = append(container, nil)
		}
		container[next.index] = assign(container[next.index], steps[1:], value)
		return container
	case map[string]any:
		container[next.key] = assign(container[next.key], steps[1:], value)
		return container
	default:
		return container
	}
}

func assignLast(current any, appendValue bool, value string) any {
	switch current := current.(type) {
	case nil:
		if appendValue {
			return []any{value}
		}
		return value
	case []any:
		return append(current, value)
	case map[string]any:
		current[""] = assignLast(current[""], false, value)
		return current
	default:
		return []any{current, value}
	}
}

// prepare returns a container suitable for the next path step, converting
// the current value where required.
func prepare(current any, list bool) any {
	switch current := current.(type) {
	case nil:
		if list {
			return []any{}
		}
		return map[string]any{}
	case map[string]any:
		return current
	case []any:
		if list {
			return current
		}
		result := make(map[string]any, len(current))
		for i, item := range current {
			if item != nil {
				result[strconv.Itoa(i)] = item
			}
		}
		return result
	default:
		return map[string]any{"": current}
	}
}
