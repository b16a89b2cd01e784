package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapexpr/internal/cli/output"
)

// FormatOptions holds options for the format command.
type FormatOptions struct {
	File      string
	Multiline bool
	Write     bool // Rewrite File in place
}

// NewFormatCommand creates the format command.
func NewFormatCommand() *cobra.Command {
	opts := &FormatOptions{}
	cmd := &cobra.Command{
		Use:   "format [formula]",
		Short: "Print a formula in canonical form",
		Long: `Reformat a formula: canonical display names, spacing and the minimal
parentheses. The output parses back to the same tree.`,
		Example: `  leapexpr format 'countif( [Total]>0 )'
  # CountIf([Total] > 0)

  leapexpr format --multiline -f formulas/big.expr --write`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Read the formula from a file")
	cmd.Flags().BoolVar(&opts.Multiline, "multiline", false, "Break long calls and logical chains over lines")
	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Write the result back to --file")
	return cmd
}

func runFormat(cmd *cobra.Command, args []string, opts *FormatOptions) error {
	if opts.Write && opts.File == "" {
		return fmt.Errorf("--write requires --file")
	}
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	source, err := readFormula(cmd, args, opts.File)
	if err != nil {
		return err
	}
	formatted, diags := cmdCtx.Engine.Format(source, opts.Multiline)
	r := cmdCtx.Renderer
	if len(diags) > 0 {
		r.Diagnostics(opts.File, source, diags)
		return ErrFormulaInvalid
	}

	if opts.Write {
		if err := os.WriteFile(opts.File, []byte(formatted+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.File, err)
		}
		cmdCtx.Logger.Debug("formatted file", "file", opts.File)
		return nil
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]string{"formatted": formatted})
	}
	r.Println(formatted)
	return nil
}
