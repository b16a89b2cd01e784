package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewTokenizeCommand(), "tokenize [formula]", []string{"file", "trivia"}},
		{NewParseCommand(), "parse [formula]", []string{"file"}},
		{NewCheckCommand(), "check [formula]", []string{"file"}},
		{NewSuggestCommand(), "suggest <formula>", []string{"cursor", "category", "limit"}},
		{NewFormatCommand(), "format [formula]", []string{"file", "multiline", "write"}},
		{NewCompileCommand(), "compile [formula]", []string{"file", "decompile"}},
		{NewClausesCommand(), "clauses", []string{"category", "verbose"}},
		{NewREPLCommand(), "repl", []string{"history"}},
		{NewLSPCommand(), "lsp", nil},
		{NewServeCommand(), "serve", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestCheckFileFlagRepeats(t *testing.T) {
	cmd := NewCheckCommand()
	assert.NoError(t, cmd.Flags().Parse([]string{"-f", "a.expr", "--file", "b.expr"}))
	got, err := cmd.Flags().GetStringArray("file")
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.expr", "b.expr"}, got)
}
