package commands

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapexpr/internal/cli/output"
	"github.com/leapstack-labs/leapexpr/internal/engine"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Files []string // Formula files, checked concurrently
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check [formula]",
		Short: "Type-check formulas against table metadata",
		Long: `Parse and resolve formulas against the configured table and database
capabilities, reporting every problem found.

The command exits non-zero when any formula has errors.`,
		Example: `  # Check a custom column
  leapexpr check '[Total] * 1.2' --table orders

  # Check a custom aggregation
  leapexpr check --mode aggregation 'CountIf([Total] > 100)'

  # Check many files
  leapexpr check -f formulas/revenue.expr -f formulas/big.expr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.Files, "file", "f", nil, "Formula file to check (repeatable)")
	return cmd
}

// checked is the result of checking one formula.
type checked struct {
	Name   string         `json:"name,omitempty"`
	Result *engine.Result `json:"result"`
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var results []checked
	if len(opts.Files) > 0 {
		results, err = checkFiles(cmd.Context(), cmdCtx.Engine, opts)
	} else {
		var source string
		source, err = readFormula(cmd, args, "")
		if err != nil {
			return err
		}
		var res *engine.Result
		res, err = cmdCtx.Engine.Compile(cmd.Context(), engine.Request{Source: source})
		results = []checked{{Result: res}}
	}
	if err != nil {
		return err
	}

	renderChecked(cmdCtx.Renderer, results)
	for _, c := range results {
		if !c.Result.OK() {
			return ErrFormulaInvalid
		}
	}
	return nil
}

// checkFiles compiles every file concurrently. Results keep the order of
// the files.
func checkFiles(ctx context.Context, eng *engine.Engine, opts *CheckOptions) ([]checked, error) {
	results := make([]checked, len(opts.Files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, name := range opts.Files {
		g.Go(func() error {
			data, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			res, err := eng.Compile(ctx, engine.Request{Source: strings.TrimRight(string(data), "\r\n")})
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			results[i] = checked{Name: name, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderChecked(r *output.Renderer, results []checked) {
	if r.EffectiveMode() == output.ModeJSON {
		for _, c := range results {
			if c.Result.Diagnostics == nil {
				c.Result.Diagnostics = []core.Diagnostic{}
			}
		}
		_ = r.JSON(results)
		return
	}

	styles := r.Styles()
	for _, c := range results {
		res := c.Result
		label := c.Name
		if label == "" {
			label = res.Source
		}
		if res.OK() {
			if r.EffectiveMode() == output.ModeMarkdown {
				r.Println(output.FormatKeyValue(label, fmt.Sprintf("ok (%s)", res.Type)))
				continue
			}
			r.Printf("%s %s %s\n", styles.Success.Render("ok"), label, styles.Muted.Render(res.Type.String()))
			continue
		}
		r.Diagnostics(c.Name, res.Source, res.Diagnostics)
	}
}
