package schema

import (
	"fmt"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Strategy selects the shape of the file container on a Form
type Strategy int

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	_ Strategy = iota
	StrategyNone
	StrategyValue
	StrategyArray
	StrategyObject
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ParseStrategy returns a strategy from its name
func ParseStrategy(v string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none":
		return StrategyNone, nil
	case "value", "single", "single-value":
		return StrategyValue, nil
	case "array", "list", "ordered-list":
		return StrategyArray, nil
	case "object", "fields", "grouped-by-field":
		return StrategyObject, nil
	default:
		return 0, fmt.Errorf("unknown file strategy: %q", v)
	}
}

// Valid returns true if the strategy is one of the known strategies
func (s Strategy) Valid() bool {
	return s >= StrategyNone && s <= StrategyObject
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyValue:
		return "single-value"
	case StrategyArray:
		return "ordered-list"
	case StrategyObject:
		return "grouped-by-field"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
