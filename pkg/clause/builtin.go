package clause

import (
	"sync"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// Database features that gate clauses.
const (
	FeatureStandardDeviation = "standard-deviation-aggregations"
	FeaturePercentile        = "percentile-aggregations"
	FeatureDistinctWhere     = "distinct-where"
	FeatureOffset            = "window-functions/offset"
	FeatureExpressions       = "expressions"
	FeatureCastText          = "expressions/text"
	FeatureCastInteger       = "expressions/integer"
	FeatureCastDate          = "expressions/date"
	FeatureCastFloat         = "expressions/float"
	FeatureSplitPart         = "split-part"
	FeatureRegex             = "regex"
	FeatureAdvancedMath      = "advanced-math-expressions"
	FeatureDatetimeDiff      = "datetime-diff"
	FeatureConvertTimezone   = "convert-timezone"
)

// Features lists every feature a builtin clause can require.
func Features() []string {
	return []string{
		FeatureAdvancedMath,
		FeatureConvertTimezone,
		FeatureDatetimeDiff,
		FeatureDistinctWhere,
		FeatureExpressions,
		FeatureCastDate,
		FeatureCastFloat,
		FeatureCastInteger,
		FeatureCastText,
		FeaturePercentile,
		FeatureRegex,
		FeatureSplitPart,
		FeatureStandardDeviation,
		FeatureOffset,
	}
}

// Option names.
const (
	OptionCaseInsensitive = "case-insensitive"
	OptionIncludeCurrent  = "include-current"
	OptionModeISO         = "iso"
	OptionModeUS          = "us"
	OptionModeInstance    = "instance"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of builtin clauses.
func Default() *Registry {
	defaultOnce.Do(func() {
		defs := append(aggregations(), functions()...)
		defs = append(defs, operators()...)
		defaultRegistry = MustRegistry(defs...)
	})
	return defaultRegistry
}

const (
	num  = core.TypeNumber
	str  = core.TypeString
	boo  = core.TypeBoolean
	dt   = core.TypeDateTime
	expr = core.TypeExpression
	anyT = core.TypeAny
)

func aggregations() []*Definition {
	return []*Definition{
		Define("count").Display("Count").Aggregation().
			Describe("Number of rows.").Build(),
		Define("cum-count").Display("CumulativeCount").Aggregation().
			Describe("Running total of the row count.").Build(),
		Define("sum").Display("Sum").Aggregation().Args(num).
			Describe("Sum of all values of a column.").Build(),
		Define("cum-sum").Display("CumulativeSum").Aggregation().Args(num).
			Describe("Running total of a column.").Build(),
		Define("distinct").Display("Distinct").Aggregation().Args(expr).
			Describe("Number of distinct values.").Build(),
		Define("stddev").Display("StandardDeviation").Aggregation().Args(num).
			Requires(FeatureStandardDeviation).
			Describe("Standard deviation of a column.").Build(),
		Define("avg").Display("Average").Aggregation().Args(num).
			Describe("Mean of a column.").Build(),
		Define("median").Display("Median").Aggregation().Args(num).
			Requires(FeaturePercentile).
			Describe("Median of a column.").Build(),
		Define("min").Display("Min").Aggregation().Args(expr).
			Describe("Smallest value of a column.").Build(),
		Define("max").Display("Max").Aggregation().Args(expr).
			Describe("Largest value of a column.").Build(),
		Define("share").Display("Share").Aggregation().Args(boo).
			Describe("Fraction of rows matching a condition.").Build(),
		Define("count-where").Display("CountIf").Aggregation().Args(boo).
			Describe("Number of rows matching a condition.").Build(),
		Define("distinct-where").Display("DistinctIf").Aggregation().Args(num, boo).
			Requires(FeatureDistinctWhere).
			Describe("Distinct values among rows matching a condition.").Build(),
		Define("sum-where").Display("SumIf").Aggregation().Args(num, boo).
			Describe("Sum of a column over rows matching a condition.").Build(),
		Define("var").Display("Variance").Aggregation().Args(num).
			Requires(FeatureStandardDeviation).
			Describe("Variance of a column.").Build(),
		Define("percentile").Display("Percentile").Aggregation().Args(num, num).
			Requires(FeaturePercentile).
			Describe("Value at the given percentile of a column.").Build(),
		Define("offset").Display("Offset").Aggregation().Returns(anyT).Args(anyT, num).
			Requires(FeatureOffset).Validate(validateOffset).
			Describe("Value of an expression in another row.").Build(),
	}
}

func functions() []*Definition {
	return []*Definition{
		// casts
		Define("text").Returns(str).Args(expr).Requires(FeatureCastText).
			Describe("Converts a value to text.").Build(),
		Define("integer").Returns(num).Args(expr).Requires(FeatureCastInteger).
			Describe("Converts a value to an integer.").Build(),
		Define("date").Returns(dt).Args(expr).Requires(FeatureCastDate).
			Describe("Converts a value to a date.").Build(),
		Define("float").Returns(num).Args(expr).Requires(FeatureCastFloat).
			Describe("Converts a value to a floating point number.").Build(),

		// strings
		Define("lower").Returns(str).Args(str).Describe("Lowercases text.").Build(),
		Define("upper").Returns(str).Args(str).Describe("Uppercases text.").Build(),
		Define("substring").Returns(str).Args(str, num, num).Validate(validateSubstring).
			Describe("Part of text starting at a 1-based position.").Build(),
		Define("split-part").Display("splitPart").Returns(str).Args(str, str, num).
			Requires(FeatureSplitPart).Validate(validateSplitPart).
			Describe("The nth piece of text split on a delimiter.").Build(),
		Define("regex-match-first").Display("regexExtract").Returns(str).Args(str, str).
			Requires(FeatureRegex).
			Describe("First match of a regular expression.").Build(),
		Define("path").Returns(str).Args(str).Requires(FeatureRegex).
			Describe("Path part of a URL.").Build(),
		Define("concat").Returns(str).Args(expr, expr).Variadic().
			Describe("Joins values into one text.").Build(),
		Define("replace").Returns(str).Args(str, str, str).
			Describe("Replaces every occurrence of a substring.").Build(),
		Define("length").Returns(num).Args(str).Describe("Number of characters.").Build(),
		Define("trim").Returns(str).Args(str).Describe("Strips surrounding whitespace.").Build(),
		Define("rtrim").Display("rTrim").Returns(str).Args(str).
			Describe("Strips trailing whitespace.").Build(),
		Define("ltrim").Display("lTrim").Returns(str).Args(str).
			Describe("Strips leading whitespace.").Build(),
		Define("domain").Returns(str).Args(str).Requires(FeatureRegex).
			Describe("Domain name of a URL or email.").Build(),
		Define("subdomain").Returns(str).Args(str).Requires(FeatureRegex).
			Describe("Subdomain of a URL.").Build(),
		Define("host").Returns(str).Args(str).Requires(FeatureRegex).
			Describe("Host of a URL or email.").Build(),
		Define("month-name").Display("monthName").Returns(str).Args(num).
			Describe("Name of a month number.").Build(),
		Define("quarter-name").Display("quarterName").Returns(str).Args(num).
			Describe("Name of a quarter number.").Build(),
		Define("day-name").Display("dayName").Returns(str).Args(num).
			Describe("Name of a weekday number.").Build(),

		// numbers
		Define("abs").Returns(num).Args(num).Requires(FeatureExpressions).
			Describe("Absolute value.").Build(),
		Define("floor").Returns(num).Args(num).Requires(FeatureExpressions).
			Describe("Rounds down.").Build(),
		Define("ceil").Returns(num).Args(num).Requires(FeatureExpressions).
			Describe("Rounds up.").Build(),
		Define("round").Returns(num).Args(num).Requires(FeatureExpressions).
			Describe("Rounds to the nearest integer.").Build(),
		Define("sqrt").Returns(num).Args(num).Requires(FeatureAdvancedMath).
			Describe("Square root.").Build(),
		Define("power").Returns(num).Args(num, num).Requires(FeatureAdvancedMath).
			Describe("Raises a number to an exponent.").Build(),
		Define("log").Returns(num).Args(num).Requires(FeatureAdvancedMath).
			Describe("Base 10 logarithm.").Build(),
		Define("exp").Returns(num).Args(num).Requires(FeatureAdvancedMath).
			Describe("e raised to a power.").Build(),

		// predicates
		Define("contains").Returns(boo).Args(str, str).Variadic().Options(OptionCaseInsensitive).
			Describe("Whether text contains any of the given substrings.").Build(),
		Define("does-not-contain").Display("doesNotContain").Returns(boo).Args(str, str).Variadic().
			Options(OptionCaseInsensitive).
			Describe("Whether text contains none of the given substrings.").Build(),
		Define("starts-with").Display("startsWith").Returns(boo).Args(str, str).Variadic().
			Options(OptionCaseInsensitive).
			Describe("Whether text starts with any of the given prefixes.").Build(),
		Define("ends-with").Display("endsWith").Returns(boo).Args(str, str).Variadic().
			Options(OptionCaseInsensitive).
			Describe("Whether text ends with any of the given suffixes.").Build(),
		Define("between").Returns(boo).Args(expr, expr, expr).
			Describe("Whether a value lies within an inclusive range.").Build(),
		Define("interval").Display("timeSpan").Returns(num).Args(num, str).
			Describe("A span of time in the given unit.").Build(),
		Define("time-interval").Display("interval").Returns(boo).Args(expr, num, str).
			Options(OptionIncludeCurrent).
			Describe("Whether a date falls within the last or next N units.").Build(),
		Define("relative-time-interval").Display("intervalStartingFrom").Returns(boo).
			Args(expr, num, str, num, str).
			Describe("Whether a date falls within N units starting from an offset.").Build(),
		Define("relative-datetime").Display("relativeDateTime").Returns(expr).Args(num, str).
			Describe("A moment N units from now.").Build(),
		Define("is-null").Display("isNull").Returns(boo).Args(expr).
			Describe("Whether a value is missing.").Build(),
		Define("not-null").Display("notNull").Returns(boo).Args(expr).
			Describe("Whether a value is present.").Build(),
		Define("is-empty").Display("isEmpty").Returns(boo).Args(expr).
			Describe("Whether text is missing or empty.").Build(),
		Define("not-empty").Display("notEmpty").Returns(boo).Args(expr).
			Describe("Whether text is present and not empty.").Build(),

		// conditionals
		Define("coalesce").Returns(expr).Args(expr, expr).Variadic().ArgTypes(contextArgType).
			Describe("First value that is not missing.").Build(),
		Define("case").Returns(expr).Args(expr, expr).Variadic().ArgTypes(conditionalArgType).
			Describe("Value of the first true condition, else the fallback.").Build(),
		Define("if").Returns(expr).Args(expr, expr).Variadic().ArgTypes(conditionalArgType).
			Describe("Alias of case.").Build(),
		Define("in").Returns(boo).Args(expr, expr).Variadic().
			Describe("Whether a value equals any of the others.").Build(),
		Define("not-in").Display("notIn").Returns(boo).Args(expr, expr).Variadic().
			Describe("Whether a value equals none of the others.").Build(),

		// dates
		Define("get-year").Display("year").Returns(num).Args(dt).Describe("Year of a date.").Build(),
		Define("get-quarter").Display("quarter").Returns(num).Args(dt).Describe("Quarter of a date.").Build(),
		Define("get-month").Display("month").Returns(num).Args(dt).Describe("Month of a date.").Build(),
		Define("get-week").Display("week").Returns(num).Args(dt).
			Options(OptionModeISO, OptionModeUS, OptionModeInstance).
			Describe("Week of the year of a date.").Build(),
		Define("get-day").Display("day").Returns(num).Args(dt).Describe("Day of the month of a date.").Build(),
		Define("get-day-of-week").Display("weekday").Returns(num).Args(dt).
			Options(OptionModeISO, OptionModeUS, OptionModeInstance).
			Describe("Day of the week of a date.").Build(),
		Define("get-hour").Display("hour").Returns(num).Args(dt).Describe("Hour of a timestamp.").Build(),
		Define("get-minute").Display("minute").Returns(num).Args(dt).Describe("Minute of a timestamp.").Build(),
		Define("get-second").Display("second").Returns(num).Args(dt).Describe("Second of a timestamp.").Build(),
		Define("datetime-diff").Display("datetimeDiff").Returns(num).Args(dt, dt, str).
			Requires(FeatureDatetimeDiff).
			Describe("Difference between two dates in the given unit.").Build(),
		Define("datetime-add").Display("datetimeAdd").Returns(dt).Args(dt, num, str).
			Describe("Adds N units to a date.").Build(),
		Define("datetime-subtract").Display("datetimeSubtract").Returns(dt).Args(dt, num, str).
			Describe("Subtracts N units from a date.").Build(),
		Define("now").Returns(dt).Describe("The current moment.").Build(),
		Define("convert-timezone").Display("convertTimezone").Returns(dt).Args(dt, str).
			Options().Requires(FeatureConvertTimezone).
			Describe("Converts a timestamp to another time zone, optionally from a source zone.").Build(),
	}
}

func operators() []*Definition {
	op := func(name string) *Builder {
		return Define(name).Display(name).Operator()
	}
	return []*Definition{
		Define("and").Display("AND").Operator().Returns(boo).Args(boo, boo).Variadic().
			ArgTypes(booleanArgType).Build(),
		Define("or").Display("OR").Operator().Returns(boo).Args(boo, boo).Variadic().
			ArgTypes(booleanArgType).Build(),
		Define("not").Display("NOT").Operator().Returns(boo).Args(boo).Build(),

		op("*").Returns(num).Args(num, num).Variadic().ArgTypes(arithmeticArgType).Build(),
		op("/").Returns(num).Args(num, num).Variadic().ArgTypes(arithmeticArgType).Build(),
		op("-").Returns(num).Args(num, num).Variadic().Unary().ArgTypes(arithmeticArgType).Build(),
		op("+").Returns(num).Args(num, num).Variadic().ArgTypes(arithmeticArgType).Build(),

		op("=").Returns(boo).Args(expr, expr).Build(),
		op("!=").Returns(boo).Args(expr, expr).Build(),
		op("<=").Returns(boo).Args(expr, expr).Build(),
		op(">=").Returns(boo).Args(expr, expr).Build(),
		op("<").Returns(boo).Args(expr, expr).Build(),
		op(">").Returns(boo).Args(expr, expr).Build(),
	}
}
