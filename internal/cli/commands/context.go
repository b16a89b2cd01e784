package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapexpr/internal/cli/config"
	"github.com/leapstack-labs/leapexpr/internal/cli/output"
	"github.com/leapstack-labs/leapexpr/internal/engine"
	"github.com/leapstack-labs/leapexpr/internal/metadata"
	"github.com/leapstack-labs/leapexpr/pkg/i18n"
)

// ErrFormulaInvalid is returned by commands that found errors in a formula.
// The diagnostics have already been printed.
var ErrFormulaInvalid = errors.New("formula has errors")

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
	// Metadata is set when columns come from a metadata file.
	Metadata *metadata.FileProvider
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	cc := &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
	eng, cleanup, err := cc.createEngine(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	cc.Engine = eng
	return cc, cleanup, nil
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Mode:         config.DefaultMode,
		Language:     config.DefaultLanguage,
		LogLevel:     config.DefaultLogLevel,
		OutputFormat: config.DefaultOutput,
	}
}

// createEngine builds the engine over the configured metadata source.
// A DSN wins over a metadata file; without either, formulas see no
// columns and only the configured engine's features.
func (cc *CommandContext) createEngine(ctx context.Context) (*engine.Engine, func(), error) {
	cfg := cc.Cfg
	cleanup := func() {}

	mode, err := cfg.ExpressionMode()
	if err != nil {
		return nil, nil, err
	}
	localizer, err := i18n.Parse(cfg.Language)
	if err != nil {
		return nil, nil, err
	}

	var provider metadata.Provider
	switch {
	case cfg.DSN != "":
		sqlp, err := metadata.OpenSQL(ctx, cfg.Engine, cfg.DSN,
			metadata.WithLogger(cc.Logger),
			metadata.WithExtraFeatures(cfg.Features...),
		)
		if err != nil {
			return nil, nil, err
		}
		provider = sqlp
		cleanup = func() { _ = sqlp.Close() }

	case cfg.MetadataFile != "":
		if err := cfg.ValidateMetadata(); err != nil {
			return nil, nil, err
		}
		fp, err := metadata.LoadFile(cfg.MetadataFile)
		if err != nil {
			return nil, nil, err
		}
		cc.Metadata = fp
		provider = fp
		if cfg.Engine != "" {
			fs, err := metadata.EngineFeatures(cfg.Engine, cfg.Features...)
			if err != nil {
				return nil, nil, err
			}
			provider = &metadata.Overlay{Provider: fp, FeatureSet: fs}
		} else if len(cfg.Features) > 0 {
			fs, err := fp.Features(ctx)
			if err != nil {
				return nil, nil, err
			}
			for _, f := range cfg.Features {
				fs.Add(f)
			}
			provider = &metadata.Overlay{Provider: fp, FeatureSet: fs}
		}

	case cfg.Engine != "":
		fs, err := metadata.EngineFeatures(cfg.Engine, cfg.Features...)
		if err != nil {
			return nil, nil, err
		}
		provider = &metadata.Static{FeatureNames: fs.Names()}

	case len(cfg.Features) > 0:
		provider = &metadata.Static{FeatureNames: cfg.Features}
	}

	cc.Logger.Debug("engine configured",
		slog.String("mode", mode.String()),
		slog.String("table", cfg.Table),
		slog.Bool("metadata", provider != nil),
	)
	eng := engine.New(engine.Config{
		Provider:  provider,
		Table:     cfg.Table,
		Mode:      mode,
		Localizer: localizer,
		Language:  localizer.Tag(),
		Logger:    cc.Logger,
	})
	return eng, cleanup, nil
}

// WatchMetadata reloads the metadata file on change until ctx is done,
// when watching is enabled and columns come from a file.
func (cc *CommandContext) WatchMetadata(ctx context.Context, onReload func()) {
	if !cc.Cfg.Watch || cc.Metadata == nil {
		return
	}
	go func() {
		err := metadata.Watch(ctx, cc.Metadata, cc.Logger, func() {
			cc.Engine.Invalidate()
			if onReload != nil {
				onReload()
			}
		})
		if err != nil {
			cc.Logger.Error("metadata watcher stopped", slog.Any("error", err))
		}
	}()
}

// readFormula returns the formula given as arguments, read from a file, or
// read from stdin when the only argument is "-".
func readFormula(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}
	return "", errors.New("no formula given (pass it as an argument, with --file, or - for stdin)")
}
