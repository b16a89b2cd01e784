package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapexpr/pkg/clause"
	"github.com/leapstack-labs/leapexpr/pkg/complete"
	"github.com/leapstack-labs/leapexpr/pkg/core"
)

const (
	replPrompt         = "leapexpr> "
	replContinuePrompt = "     ...> "
)

var replDotCommands = []string{".help", ".mode", ".table", ".columns", ".clauses", ".mbql", ".clear", ".quit", ".exit"}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	var history string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Check formulas interactively",
		Long: `Start an interactive shell that checks each formula as it is entered,
printing its type and canonical form or its diagnostics.

Tab completes clauses, columns and options.`,
		Example: `  leapexpr repl --table orders --mode aggregation`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, history)
		},
	}
	cmd.Flags().StringVar(&history, "history", "", "History file (default: .leapexpr_history in the project root)")
	return cmd
}

// replState is the mutable state of a REPL session. The completer reads
// it from the readline goroutine.
type replState struct {
	cc   *CommandContext
	out  io.Writer
	errW io.Writer

	mu    sync.Mutex
	mode  core.ExpressionMode
	table string
	mbql  bool
	qc    *core.QueryContext
}

func newREPLState(cc *CommandContext) *replState {
	return &replState{
		cc:    cc,
		out:   cc.Renderer.Writer(),
		errW:  cc.Renderer.ErrWriter(),
		mode:  cc.Engine.Mode(),
		table: cc.Engine.Table(),
	}
}

// context returns the query context for the current table and mode,
// loading it on first use.
func (s *replState) context(ctx context.Context) (core.QueryContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.qc != nil {
		return *s.qc, nil
	}
	qc, err := s.cc.Engine.QueryContext(ctx, s.table, s.mode)
	if err != nil {
		return core.QueryContext{}, err
	}
	s.qc = &qc
	return qc, nil
}

// invalidate drops the loaded query context.
func (s *replState) invalidate() {
	s.mu.Lock()
	s.qc = nil
	s.mu.Unlock()
}

func runREPL(cmd *cobra.Command, history string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	state := newREPLState(cmdCtx)
	cmdCtx.WatchMetadata(ctx, state.invalidate)

	if history == "" && cmdCtx.Cfg.ProjectRoot != "" {
		history = filepath.Join(cmdCtx.Cfg.ProjectRoot, ".leapexpr_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     history,
		AutoComplete:    &formulaCompleter{ctx: ctx, state: state},
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(state.out, "leapexpr formula shell (mode: %s, table: %s)\n", state.mode, tableLabel(state.table))
	_, _ = fmt.Fprintln(state.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(state.out)

	// A trailing backslash continues the formula on the next line.
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ".") {
				if quit := state.dotCommand(ctx, trimmed); quit {
					break
				}
				continue
			}
		}

		if strings.HasSuffix(trimmed, `\`) {
			buf.WriteString(strings.TrimSuffix(trimmed, `\`))
			buf.WriteString("\n")
			rl.SetPrompt(replContinuePrompt)
			continue
		}
		buf.WriteString(trimmed)
		rl.SetPrompt(replPrompt)

		source := buf.String()
		buf.Reset()
		if err := state.evaluate(ctx, source); err != nil {
			_, _ = fmt.Fprintf(state.errW, "Error: %v\n", err)
		}
	}
	return nil
}

// evaluate checks one formula and prints the outcome.
func (s *replState) evaluate(ctx context.Context, source string) error {
	qc, err := s.context(ctx)
	if err != nil {
		return err
	}
	res := s.cc.Engine.CompileWith(source, qc)
	s.cc.Logger.Debug("repl formula", slog.Int("diagnostics", len(res.Diagnostics)))

	r := s.cc.Renderer
	if !res.OK() {
		r.Diagnostics("", source, res.Diagnostics)
		return nil
	}
	styles := r.Styles()
	_, _ = fmt.Fprintf(s.out, "%s %s\n", res.Formatted, styles.Muted.Render(": "+res.Type.String()))
	if s.mbql {
		data, err := json.Marshal(res.MBQL)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(s.out, styles.Code.Render(string(data)))
	}
	// Warnings are shown under a valid formula too.
	if len(res.Diagnostics) > 0 {
		r.Diagnostics("", source, res.Diagnostics)
	}
	return nil
}

// dotCommand runs a REPL command and reports whether the session ends.
func (s *replState) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".mode":
		if len(args) == 0 {
			_, _ = fmt.Fprintln(s.out, s.currentMode())
			return false
		}
		mode, err := core.ParseExpressionMode(args[0])
		if err != nil {
			_, _ = fmt.Fprintf(s.errW, "Error: %v\n", err)
			return false
		}
		s.mu.Lock()
		s.mode = mode
		s.qc = nil
		s.mu.Unlock()
		_, _ = fmt.Fprintf(s.out, "mode: %s\n", mode)

	case ".table":
		if len(args) == 0 {
			_, _ = fmt.Fprintln(s.out, tableLabel(s.currentTable()))
			return false
		}
		s.mu.Lock()
		s.table = args[0]
		s.qc = nil
		s.mu.Unlock()
		if _, err := s.context(ctx); err != nil {
			_, _ = fmt.Fprintf(s.errW, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintf(s.out, "table: %s\n", args[0])

	case ".columns":
		qc, err := s.context(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(s.errW, "Error: %v\n", err)
			return false
		}
		if len(qc.Columns) == 0 {
			_, _ = fmt.Fprintln(s.out, "(no columns)")
			return false
		}
		rows := make([][]string, len(qc.Columns))
		for i, c := range qc.Columns {
			rows[i] = []string{c.Name, c.Label(), c.Type.String()}
		}
		s.cc.Renderer.Table([]string{"Name", "Display", "Type"}, rows)

	case ".clauses":
		var cats []clause.Category
		if len(args) > 0 {
			cat, err := clause.ParseCategory(args[0])
			if err != nil {
				_, _ = fmt.Fprintf(s.errW, "Error: %v\n", err)
				return false
			}
			cats = append(cats, cat)
		}
		defs, err := s.cc.Engine.Clauses(ctx, cats...)
		if err != nil {
			_, _ = fmt.Fprintf(s.errW, "Error: %v\n", err)
			return false
		}
		for _, d := range defs {
			_, _ = fmt.Fprintln(s.out, d.Signature())
		}

	case ".mbql":
		s.mu.Lock()
		s.mbql = len(args) == 0 || args[0] != "off"
		on := s.mbql
		s.mu.Unlock()
		_, _ = fmt.Fprintf(s.out, "clause form: %s\n", onOff(on))

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errW, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (s *replState) currentMode() core.ExpressionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *replState) currentTable() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table
}

func tableLabel(table string) string {
	if table == "" {
		return "(none)"
	}
	return table
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help              Show this help message
  .mode [mode]       Show or set the mode (expression, aggregation, boolean)
  .table [name]      Show or set the table formulas are checked against
  .columns           List the columns of the current table
  .clauses [cat]     List clauses (aggregation, function, operator)
  .mbql [on|off]     Also print the structured clause form
  .clear             Clear the screen
  .quit / .exit      Exit the REPL

Tips:
  - End a line with \ to continue the formula on the next line
  - Use arrow keys to navigate history
  - Tab completes clauses, [columns] and options`
	_, _ = fmt.Fprintln(w, help)
	_, _ = fmt.Fprintln(w)
}

// formulaCompleter adapts formula suggestions to readline. Readline
// inserts suffixes, so only candidates extending the typed word are kept.
type formulaCompleter struct {
	ctx   context.Context
	state *replState
}

// Do implements readline.AutoCompleter.
func (c *formulaCompleter) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	if len(line) > 0 && line[0] == '.' {
		return completeWords(replDotCommands, string(line[:pos]))
	}

	qc, err := c.state.context(c.ctx)
	if err != nil {
		return nil, 0
	}
	source := string(line)
	cursor := len(string(line[:pos]))
	res := c.state.cc.Engine.SuggestWith(source, cursor, qc, complete.CategoryAll)
	if res == nil || res.From > cursor {
		return nil, 0
	}

	typed := source[res.From:cursor]
	inserts := make([]string, 0, len(res.Candidates))
	for _, cand := range res.Candidates {
		inserts = append(inserts, cand.InsertText)
	}
	return completeWords(inserts, typed)
}

// completeWords returns the suffixes of words that extend prefix, matched
// case-insensitively, and the rune length of prefix.
func completeWords(words []string, prefix string) ([][]rune, int) {
	p := []rune(prefix)
	var out [][]rune
	for _, w := range words {
		r := []rune(w)
		if len(r) < len(p) || !strings.EqualFold(string(r[:len(p)]), prefix) {
			continue
		}
		out = append(out, r[len(p):])
	}
	return out, len(p)
}

var _ readline.AutoCompleter = (*formulaCompleter)(nil)
