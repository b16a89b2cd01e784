package clause

import "github.com/leapstack-labs/leapexpr/pkg/core"

func arithmeticArgType(_ int, _ []*core.Node, context core.ResultType) core.ResultType {
	if context == core.TypeAggregation {
		return core.TypeAggregation
	}
	return core.TypeNumber
}

func booleanArgType(int, []*core.Node, core.ResultType) core.ResultType {
	return core.TypeBoolean
}

func contextArgType(_ int, _ []*core.Node, context core.ResultType) core.ResultType {
	return context
}

// conditionalArgType alternates condition and value: even positions are
// conditions, odd positions values, and a trailing unpaired argument is the
// else value.
func conditionalArgType(index int, args []*core.Node, context core.ResultType) core.ResultType {
	n := len(args)
	if n%2 == 1 && index == n-1 {
		return context
	}
	if index%2 == 1 {
		return context
	}
	return core.TypeBoolean
}
