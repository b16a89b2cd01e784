package core

import (
	"fmt"
	"strings"
)

// ResultType is the static type of a formula or of one of its sub-expressions.
type ResultType int

// Result types. The zero value is TypeAny, used for columns and
// sub-expressions whose type is not known.
const (
	TypeAny ResultType = iota
	// TypeExpression is the polymorphic "any expression" type.
	TypeExpression
	// TypeAggregation is the type of aggregation clauses and of arithmetic
	// over them.
	TypeAggregation
	TypeBoolean
	TypeNumber
	TypeString
	TypeDateTime
)

var resultTypeNames = map[ResultType]string{
	TypeAny:         "any",
	TypeExpression:  "expression",
	TypeAggregation: "aggregation",
	TypeBoolean:     "boolean",
	TypeNumber:      "number",
	TypeString:      "string",
	TypeDateTime:    "datetime",
}

// String returns the lowercase name of the type.
func (t ResultType) String() string {
	if name, ok := resultTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ResultType(%d)", int(t))
}

// ParseResultType converts a type name into a ResultType.
// A few common database type spellings are accepted as aliases.
func ParseResultType(s string) (ResultType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "unknown":
		return TypeAny, nil
	case "expression":
		return TypeExpression, nil
	case "aggregation":
		return TypeAggregation, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "number", "numeric", "integer", "float":
		return TypeNumber, nil
	case "string", "text":
		return TypeString, nil
	case "datetime", "date", "timestamp", "time":
		return TypeDateTime, nil
	}
	return TypeAny, fmt.Errorf("unknown result type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t ResultType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ResultType) UnmarshalText(b []byte) error {
	v, err := ParseResultType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Assignable reports whether a value of type actual may fill a slot of
// type slot.
//
// Aggregation slots only accept aggregations; number literals inside
// aggregation arithmetic are handled by the resolver, not here.
func Assignable(slot, actual ResultType) bool {
	switch {
	case slot == actual:
		return true
	case slot == TypeAny || slot == TypeExpression:
		return true
	case slot == TypeAggregation:
		return false
	case actual == TypeAny || actual == TypeExpression:
		return true
	case slot == TypeDateTime && actual == TypeString:
		return true
	}
	return false
}

// CommonType returns the type shared by all of ts.
//
// Unknown (TypeAny) members are ignored. A mix of numbers and aggregations
// is an aggregation. Anything else that disagrees widens to TypeExpression.
func CommonType(ts ...ResultType) ResultType {
	if len(ts) == 0 {
		return TypeExpression
	}
	common := TypeAny
	for _, t := range ts {
		switch {
		case t == TypeAny:
		case common == TypeAny || common == t:
			common = t
		case isNumeric(common) && isNumeric(t):
			common = TypeAggregation
		default:
			return TypeExpression
		}
	}
	return common
}

func isNumeric(t ResultType) bool {
	return t == TypeNumber || t == TypeAggregation
}
