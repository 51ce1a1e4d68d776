// Package cli provides the analystdb command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/nao1215/analystdb"
	"github.com/nao1215/analystdb/domain/model"
	"github.com/nao1215/analystdb/internal/config"
	"github.com/nao1215/analystdb/internal/logging"
	"github.com/nao1215/analystdb/internal/script"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// appKey is used to store the resolved application in the command context.
type appKey struct{}

// app carries what every command needs after configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "analystdb",
		Short: "analystdb - embedded tabular data engine",
		Long: `analystdb loads CSV, TSV, Excel and Parquet files into SQLite session tables
and lets you query them with plain SQL, from the command line, an interactive
shell or a JSON HTTP API.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{cfg: cfg, logger: logger}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
				_ = a.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultConfigFile+")")
	flags.String("database", "", "SQLite database path (default: in-memory)")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (console|json)")
	flags.String("scripts-dir", "", "directory containing the capability scripts")
	flags.String("interpreter", "", "interpreter used to run capability scripts")
	flags.Int("workers", 0, "number of concurrent bridge workers")

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"console", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newVersionCommand(),
		newReadCommand(),
		newQueryCommand(),
		newSchemaCommand(),
		newImportCommand(),
		newExportCommand(),
		newAskCommand(),
		newShellCommand(),
		newServeCommand(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// appFrom retrieves the application from the command context.
func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey{}).(*app)
	if !ok {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	return a, nil
}

// openStore creates a store from the configuration and connects it to the
// configured database.
func (a *app) openStore(ctx context.Context, extra ...analystdb.Option) (*analystdb.Store, error) {
	opts := []analystdb.Option{
		analystdb.WithLogger(a.logger),
		analystdb.WithPragmas(a.cfg.Pragmas()),
	}
	store := analystdb.New(append(opts, extra...)...)
	if err := store.Connect(ctx, a.cfg.Database); err != nil {
		return nil, err
	}
	return store, nil
}

// dumpOnCloseOption exports every table on close when --dump-dir is set.
func dumpOnCloseOption(cmd *cobra.Command, options model.DumpOptions) []analystdb.Option {
	dir, _ := cmd.Flags().GetString("dump-dir")
	if dir == "" {
		return nil
	}
	return []analystdb.Option{analystdb.WithDumpOnClose(dir, options)}
}

// invoker returns the process invoker for the configured scripts.
func (a *app) invoker() *script.ProcessInvoker {
	return script.NewProcessInvoker(a.cfg.Scripts.Interpreter, a.cfg.Scripts.Dir, a.cfg.Scripts.Capabilities, a.logger)
}

// closeStore closes store and keeps the first error.
func closeStore(store *analystdb.Store, err *error) {
	if cerr := store.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
