package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapexpr/internal/cli/output"
	"github.com/leapstack-labs/leapexpr/internal/engine"
	"github.com/leapstack-labs/leapexpr/pkg/complete"
)

// SuggestOptions holds options for the suggest command.
type SuggestOptions struct {
	Cursor   int    // Byte offset; negative means the end of the formula
	Category string // Candidate category
	Limit    int    // Maximum number of candidates shown
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand() *cobra.Command {
	opts := &SuggestOptions{}
	cmd := &cobra.Command{
		Use:   "suggest <formula>",
		Short: "Propose completions at a cursor position",
		Long: `Propose completions for the token under the cursor: clauses, columns,
keyword operators or named options, best matches first.`,
		Example: `  leapexpr suggest --mode aggregation 'cou'
  leapexpr suggest --category columns '[Tot'
  leapexpr suggest --cursor 4 'week([Created At], "i")'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, args, opts)
		},
	}
	cmd.Flags().IntVar(&opts.Cursor, "cursor", -1, "Cursor byte offset (default: end of formula)")
	cmd.Flags().StringVar(&opts.Category, "category", "all", "Candidate category (all|aggregations|functions|columns|operators|options)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of candidates (0 for all)")
	_ = cmd.RegisterFlagCompletionFunc("category", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"all", "aggregations", "functions", "columns", "operators", "options"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runSuggest(cmd *cobra.Command, args []string, opts *SuggestOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	source, err := readFormula(cmd, args, "")
	if err != nil {
		return err
	}
	category, err := complete.ParseCategory(opts.Category)
	if err != nil {
		return err
	}
	cursor := opts.Cursor
	if cursor < 0 {
		cursor = len(source)
	}

	res, err := cmdCtx.Engine.Suggest(cmd.Context(), engine.Request{Source: source}, cursor, category)
	if err != nil {
		return err
	}
	if res == nil {
		res = &complete.Result{From: cursor, To: cursor}
	}
	if opts.Limit > 0 && len(res.Candidates) > opts.Limit {
		res.Candidates = res.Candidates[:opts.Limit]
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if res.Candidates == nil {
			res.Candidates = []complete.Candidate{}
		}
		return r.JSON(res)
	}
	if len(res.Candidates) == 0 {
		r.Println("(no suggestions)")
		return nil
	}
	rows := make([][]string, len(res.Candidates))
	for i, c := range res.Candidates {
		rows[i] = []string{c.Label, c.InsertText, strconv.Itoa(c.CursorOffset), c.Source.String(), c.Detail}
	}
	r.Table([]string{"Label", "Insert", "Cursor", "Source", "Detail"}, rows)
	return nil
}
