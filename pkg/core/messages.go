package core

import "fmt"

// MessageKey identifies a diagnostic message. The key is the English
// format template; localizers translate it and apply the arguments.
type MessageKey string

// Lexical messages.
const (
	MsgUnexpectedChar       MessageKey = "Unexpected character %q"
	MsgMissingClosingQuote  MessageKey = "Missing closing quotes"
	MsgMissingClosingSquare MessageKey = "Missing a closing bracket"
)

// Syntax messages.
const (
	MsgExpectedExpression  MessageKey = "Expected expression but found %s"
	MsgExpectedOperator    MessageKey = "Expected operator but found %s"
	MsgMissingClosingParen MessageKey = "Expecting a closing parenthesis"
	MsgMissingOpeningParen MessageKey = "Expecting an opening parenthesis"
	MsgUnknownFunction     MessageKey = "Unknown function %s"
	MsgArityExact          MessageKey = "Function %s expects %d argument(s)"
	MsgArityAtLeast        MessageKey = "Function %s expects at least %d argument(s)"
	MsgInvalidOption       MessageKey = "Invalid option %q for %s"
	MsgEmptyExpression     MessageKey = "Expression is empty"
)

// Resolution and type messages.
const (
	MsgUnknownColumn      MessageKey = "Unknown column: %s"
	MsgTypeMismatch       MessageKey = "Expecting %s but found %s"
	MsgAggregationInRow   MessageKey = "Aggregations are not allowed in custom expressions"
	MsgUnsupportedFeature MessageKey = "Unsupported function %s"
)

// Validation messages.
const (
	MsgPositiveInteger MessageKey = "Expected positive integer but found %v"
	MsgRowOffsetZero   MessageKey = "Row offset cannot be zero"
)

// Localizer renders message templates in the user's language.
type Localizer interface {
	Sprintf(key MessageKey, args ...any) string
}

// PlainLocalizer renders the English templates with fmt.
type PlainLocalizer struct{}

// Sprintf implements Localizer.
func (PlainLocalizer) Sprintf(key MessageKey, args ...any) string {
	return fmt.Sprintf(string(key), args...)
}
