package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapexpr/internal/cli/output"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "parse [formula]",
		Short: "Show the syntax tree of a formula",
		Long: `Parse a formula and print its syntax tree as an s-expression, without
resolving column names or checking types.`,
		Example: `  leapexpr parse '1 + 2 * 3'
  # (+ 1 (* 2 3))`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the formula from a file")
	return cmd
}

type parseJSON struct {
	Tree        string            `json:"tree,omitempty"`
	Diagnostics []core.Diagnostic `json:"diagnostics"`
}

func runParse(cmd *cobra.Command, args []string, file string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	source, err := readFormula(cmd, args, file)
	if err != nil {
		return err
	}
	tree, diags := cmdCtx.Engine.Parse(source)
	r := cmdCtx.Renderer

	var rendered string
	if tree != nil {
		rendered = tree.String()
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if diags == nil {
			diags = []core.Diagnostic{}
		}
		if err := r.JSON(parseJSON{Tree: rendered, Diagnostics: diags}); err != nil {
			return err
		}
	case output.ModeMarkdown:
		if rendered != "" {
			r.Println("```")
			r.Println(rendered)
			r.Println("```")
		}
		r.Diagnostics("", source, diags)
	default:
		if rendered != "" {
			r.Println(rendered)
		}
		r.Diagnostics("", source, diags)
	}

	if core.HasErrors(diags) {
		return ErrFormulaInvalid
	}
	return nil
}
