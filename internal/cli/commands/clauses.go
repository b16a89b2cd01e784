package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapexpr/internal/cli/output"
	"github.com/leapstack-labs/leapexpr/internal/engine"
	"github.com/leapstack-labs/leapexpr/pkg/clause"
)

// ClausesOptions holds options for the clauses command.
type ClausesOptions struct {
	Category string // aggregation, function, operator or empty for all
	Verbose  bool   // Include descriptions
}

// NewClausesCommand creates the clauses command.
func NewClausesCommand() *cobra.Command {
	opts := &ClausesOptions{}
	cmd := &cobra.Command{
		Use:   "clauses",
		Short: "List the clauses available to formulas",
		Long: `List the aggregations, functions and operators formulas may use, limited
to those the configured database supports.`,
		Example: `  leapexpr clauses
  leapexpr clauses --category aggregation --engine sqlite
  leapexpr clauses -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClauses(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Category, "category", "", "Only list one category (aggregation|function|operator)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Include descriptions")
	_ = cmd.RegisterFlagCompletionFunc("category", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"aggregation", "function", "operator"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runClauses(cmd *cobra.Command, opts *ClausesOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var cats []clause.Category
	if opts.Category != "" {
		cat, err := clause.ParseCategory(opts.Category)
		if err != nil {
			return err
		}
		cats = append(cats, cat)
	}
	defs, err := cmdCtx.Engine.Clauses(cmd.Context(), cats...)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(engine.ClauseInfos(defs))
	}

	header := []string{"Name", "Category", "Signature", "Feature"}
	if opts.Verbose {
		header = append(header, "Description")
	}
	rows := make([][]string, len(defs))
	for i, d := range defs {
		row := []string{d.Name, d.Category.String(), d.Signature(), d.RequiredFeature}
		if opts.Verbose {
			row = append(row, d.Description)
		}
		rows[i] = row
	}
	r.Header(1, "Clauses")
	r.Table(header, rows)
	return nil
}
