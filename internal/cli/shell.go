package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/nao1215/analystdb"
	"github.com/nao1215/analystdb/domain/model"
	"github.com/spf13/cobra"
)

const shellPrompt = "analystdb> "

func newShellCommand() *cobra.Command {
	var (
		output      string
		historyFile string
	)
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive SQL shell",
		Long: `Start an interactive shell holding one store for the whole session. Lines
starting with a dot are shell commands (type .help), everything else is run
as SQL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if err := validateOutput(output); err != nil {
				return err
			}
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			options, err := a.cfg.DumpOptions()
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context(), dumpOnCloseOption(cmd, options)...)
			if err != nil {
				return err
			}
			defer closeStore(store, &err)

			sh := &shell{
				store:       store,
				out:         cmd.OutOrStdout(),
				errOut:      cmd.ErrOrStderr(),
				format:      output,
				dumpOptions: options,
			}
			return sh.run(cmd.Context(), historyFile)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (json|table)")
	cmd.Flags().StringVar(&historyFile, "history", "", "file to keep the shell history in")
	cmd.Flags().String("dump-dir", "", "export every table to this directory on exit")
	cmd.Flags().String("format", "", "dump format (csv|tsv|ltsv|xlsx|parquet)")
	cmd.Flags().String("compression", "", "dump compression (none|gz|xz|zstd)")
	return cmd
}

// shell is the state of one interactive session.
type shell struct {
	store       *analystdb.Store
	out         io.Writer
	errOut      io.Writer
	format      string
	dumpOptions model.DumpOptions
}

func (sh *shell) run(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    shellCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(sh.out, "analystdb shell (database: %s)\n", sh.store.Path())
	_, _ = fmt.Fprintln(sh.out, "Type .help for commands, .quit to exit")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if sh.handle(ctx, line) {
			return nil
		}
	}
}

// handle runs one input line and reports whether the shell should exit.
// Errors are printed and never end the session.
func (sh *shell) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, ".") {
		sh.report(sh.execute(ctx, line))
		return false
	}

	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		printShellHelp(sh.out)
	case ".connect":
		sh.report(sh.connect(ctx, parts[1:]))
	case ".import":
		sh.report(sh.importFile(ctx, parts[1:]))
	case ".schema":
		sh.report(sh.schema(ctx))
	case ".export":
		sh.report(sh.export(ctx, parts[1:]))
	default:
		_, _ = fmt.Fprintf(sh.errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func (sh *shell) report(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(sh.errOut, "Error: %v\n", err)
	}
}

func (sh *shell) execute(ctx context.Context, sqlText string) error {
	outcome, err := sh.store.Execute(ctx, sqlText)
	if err != nil {
		return err
	}
	return renderOutcome(sh.out, outcome, sh.format)
}

func (sh *shell) connect(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: .connect <path|:memory:>", errUsage)
	}
	if err := sh.store.Connect(ctx, args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(sh.out, "connected to %s\n", sh.store.Path())
	return nil
}

func (sh *shell) importFile(ctx context.Context, args []string) error {
	importer := analystdb.NewImporter(sh.store)
	switch len(args) {
	case 1:
		importer.AddPath(args[0])
	case 2:
		importer.AddPathAs(args[0], args[1])
	default:
		return fmt.Errorf("%w: .import <file> [table]", errUsage)
	}

	built, err := importer.Build(ctx)
	if err != nil {
		return err
	}
	results, err := built.Import(ctx)
	if err != nil {
		return err
	}
	return renderImportResults(sh.out, results, sh.format)
}

func (sh *shell) schema(ctx context.Context) error {
	schema, err := sh.store.Schema(ctx)
	if err != nil {
		return err
	}
	return renderSchema(sh.out, schema, sh.format)
}

func (sh *shell) export(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: .export <dir>", errUsage)
	}
	if err := sh.store.Dump(ctx, args[0], sh.dumpOptions); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(sh.out, "exported to %s\n", args[0])
	return nil
}

func shellCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".connect"),
		readline.PcItem(".import"),
		readline.PcItem(".schema"),
		readline.PcItem(".export"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}

func printShellHelp(w io.Writer) {
	help := `Commands:
  .connect <path>         Connect to a database file or :memory:
  .import <file> [table]  Load a file into a session table
  .schema                 List tables and column counts
  .export <dir>           Write every table to <dir>
  .help                   Show this help message
  .quit / .exit           Exit the shell

Any other line is run as one SQL statement.`
	_, _ = fmt.Fprintln(w, help)
}
