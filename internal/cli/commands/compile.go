package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapexpr/internal/cli/output"
	"github.com/leapstack-labs/leapexpr/internal/engine"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	File      string
	Decompile bool // Read the structured form and print the formula
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}
	cmd := &cobra.Command{
		Use:   "compile [formula]",
		Short: "Convert a formula to its structured clause form",
		Long: `Check a formula and print the nested clause arrays query builders consume.
With --decompile, read clause arrays as JSON and print the formula.`,
		Example: `  leapexpr compile 'CountIf([Total] > 0)' --mode aggregation
  # ["count-where",[">",["field","Total"],0]]

  leapexpr compile --decompile '["sum", ["field", "Total"]]'
  # Sum([Total])`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Read the input from a file")
	cmd.Flags().BoolVarP(&opts.Decompile, "decompile", "d", false, "Convert clause arrays back to a formula")
	return cmd
}

func runCompile(cmd *cobra.Command, args []string, opts *CompileOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	input, err := readFormula(cmd, args, opts.File)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	if opts.Decompile {
		formula, err := cmdCtx.Engine.Decompile([]byte(input))
		if err != nil {
			return err
		}
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(map[string]string{"formula": formula})
		}
		r.Println(formula)
		return nil
	}

	res, err := cmdCtx.Engine.Compile(cmd.Context(), engine.Request{Source: input})
	if err != nil {
		return err
	}
	if !res.OK() {
		r.Diagnostics(opts.File, input, res.Diagnostics)
		return ErrFormulaInvalid
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(res.MBQL)
	}
	data, err := json.Marshal(res.MBQL)
	if err != nil {
		return fmt.Errorf("failed to encode clause form: %w", err)
	}
	r.Println(string(data))
	return nil
}
