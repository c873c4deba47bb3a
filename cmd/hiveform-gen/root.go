package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"hiveform-gen/internal/config"
	"hiveform-gen/internal/diagnostic"
	"hiveform-gen/internal/logging"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath string
	root       string
	outDir     string
	colocate   bool
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "hiveform-gen",
		Short: "Generate typed form modules from HiveForm markup",
		Long: `hiveform-gen finds every HiveForm container in a TSX/JSX code base, follows
component references across files to collect the Fields each form renders,
and writes one module per form context with a type, a zod schema, default
values and a config object.

Configuration is read from hiveform.yaml, then .env and HIVEFORM_* variables,
then command line flags.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default <root>/"+config.DefaultFile+")")
	pf.StringVarP(&opts.root, "root", "r", "", "Project root relative paths are resolved against")
	pf.StringVarP(&opts.outDir, "out", "o", "", "Output directory for generated modules")
	pf.BoolVar(&opts.colocate, "colocate", true, "Write each module next to the file that declares its form")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newWatchCmd(opts),
		newInspectCmd(opts),
		newConfigCmd(opts),
	)

	return cmd
}

// load builds the effective configuration and logger for cmd.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath, o.root)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = o.root
	}

	env, err := config.ReadEnv(filepath.Join(cfg.Root, ".env"))
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.ApplyEnv(env); err != nil {
		return nil, nil, err
	}

	if flags.Changed("out") {
		cfg.OutputDir = o.outDir
	}

	if flags.Changed("colocate") {
		cfg.Colocate = o.colocate
	}

	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}

	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()), nil
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// logDiagnostics reports diagnostics and returns an error when any of them
// is an error.
func logDiagnostics(logger *slog.Logger, diags diagnostic.Diagnostics) error {
	for _, d := range diags.All() {
		attrs := []any{
			slog.String("code", d.Code),
			slog.String("file", d.File),
		}
		if d.Context != "" {
			attrs = append(attrs, slog.String("context", d.Context))
		}

		switch d.Severity {
		case diagnostic.SeverityError:
			logger.Error(d.Message, attrs...)
		case diagnostic.SeverityWarning:
			logger.Warn(d.Message, attrs...)
		default:
			logger.Debug(d.Message, attrs...)
		}
	}

	if diags.HasErrors() {
		return fmt.Errorf("%d error(s) reported: %w", len(diags.Errors), diags.Error())
	}

	return nil
}
