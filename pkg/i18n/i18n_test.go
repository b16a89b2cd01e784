package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapexpr/pkg/core"
)

func TestEnglishTemplates(t *testing.T) {
	l := English()
	assert.Equal(t, "Row offset cannot be zero", l.Sprintf(core.MsgRowOffsetZero))
	assert.Equal(t, "Expected positive integer but found 0", l.Sprintf(core.MsgPositiveInteger, 0))
	assert.Equal(t, "Unknown column: Totl", l.Sprintf(core.MsgUnknownColumn, "Totl"))
}

func TestEnglishPlurals(t *testing.T) {
	l := English()
	assert.Equal(t, "Function Sum expects 1 argument", l.Sprintf(core.MsgArityExact, "Sum", 1))
	assert.Equal(t, "Function Percentile expects 2 arguments", l.Sprintf(core.MsgArityExact, "Percentile", 2))
	assert.Equal(t, "Function concat expects at least 2 arguments", l.Sprintf(core.MsgArityAtLeast, "concat", 2))
}

func TestSetString(t *testing.T) {
	require.NoError(t, SetString(language.German, core.MsgRowOffsetZero, "Zeilenversatz darf nicht null sein"))

	de, err := Parse("de")
	require.NoError(t, err)
	assert.Equal(t, "Zeilenversatz darf nicht null sein", de.Sprintf(core.MsgRowOffsetZero))
	// untranslated keys fall back to the English template
	assert.Equal(t, "Unknown column: x", de.Sprintf(core.MsgUnknownColumn, "x"))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not a language!!")
	assert.Error(t, err)
}
