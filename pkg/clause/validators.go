package clause

import (
	"math"

	"github.com/spf13/cast"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// literalNumber returns the numeric value of a literal argument. ok is false
// when the argument is absent, not a literal, or not numeric.
func literalNumber(args []any, index int) (float64, bool) {
	if index >= len(args) || args[index] == nil {
		return 0, false
	}
	if _, isBool := args[index].(bool); isBool {
		return 0, false
	}
	f, err := cast.ToFloat64E(args[index])
	if err != nil {
		return 0, false
	}
	return f, true
}

// positiveAt rejects a literal at index that is not an integer of at least
// lowest.
func positiveAt(index int, lowest float64) Validator {
	return func(args []any) *Violation {
		v, ok := literalNumber(args, index)
		if !ok || (v >= lowest && v == math.Trunc(v)) {
			return nil
		}
		return &Violation{Key: core.MsgPositiveInteger, Args: []any{args[index]}, Value: args[index]}
	}
}

// validateSubstring rejects a start position of zero or less. Positions are
// 1-based.
var validateSubstring = positiveAt(1, 1)

// validateSplitPart rejects a part index below 1.
var validateSplitPart = positiveAt(2, 1)

func validateOffset(args []any) *Violation {
	v, ok := literalNumber(args, 1)
	if !ok || v != 0 {
		return nil
	}
	return &Violation{Key: core.MsgRowOffsetZero, Value: args[1]}
}
