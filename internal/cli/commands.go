package cli

import (
	"github.com/nao1215/analystdb"
	"github.com/nao1215/analystdb/domain/model"
	"github.com/spf13/cobra"
)

func newReadCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Decode a data file and print its rows",
		Long: `Decode a CSV, TSV, XLSX/XLSM or Parquet file, optionally compressed with
gzip, bzip2, xz or zstd, and print the header and rows as text. Nothing is
written to the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			t, err := model.ReadFile(args[0])
			if err != nil {
				return err
			}
			return renderTable(cmd.OutOrStdout(), t, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format (json|table)")
	return cmd
}

func newQueryCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run one SQL statement against the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := validateOutput(output); err != nil {
				return err
			}
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, &err)

			outcome, err := store.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return renderOutcome(cmd.OutOrStdout(), outcome, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format (json|table)")
	return cmd
}

func newSchemaCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "List tables and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if err := validateOutput(output); err != nil {
				return err
			}
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, &err)

			schema, err := store.Schema(cmd.Context())
			if err != nil {
				return err
			}
			return renderSchema(cmd.OutOrStdout(), schema, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format (json|table)")
	return cmd
}

func newImportCommand() *cobra.Command {
	var (
		output      string
		tableName   string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "import <path>...",
		Short: "Load files or directories into session tables",
		Long: `Load files into session tables of the configured database. Each file becomes
one table named after the file, every column typed TEXT. Importing into an
existing table appends rows. Directories contribute the supported files
directly inside them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := validateOutput(output); err != nil {
				return err
			}
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, &err)

			importer := analystdb.NewImporter(store).WithConcurrency(concurrency)
			if tableName != "" {
				if len(args) != 1 {
					return errTableNeedsOneFile
				}
				importer.AddPathAs(args[0], tableName)
			} else {
				importer.AddPaths(args...)
			}

			built, err := importer.Build(cmd.Context())
			if err != nil {
				return err
			}
			results, err := built.Import(cmd.Context())
			if err != nil {
				return err
			}
			return renderImportResults(cmd.OutOrStdout(), results, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format (json|table)")
	cmd.Flags().StringVar(&tableName, "as", "", "table name for a single imported file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "files decoded at once (default: GOMAXPROCS)")
	return cmd
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every table of the database to files",
		Long: `Write every user table to <dir>/<table><ext>. The format and compression
come from --format and --compression, or from export.format and
export.compression in the configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			options, err := a.cfg.DumpOptions()
			if err != nil {
				return err
			}
			store, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store, &err)

			return store.Dump(cmd.Context(), args[0], options)
		},
	}
	cmd.Flags().String("format", "", "output format (csv|tsv|ltsv|xlsx|parquet)")
	cmd.Flags().String("compression", "", "compression (none|gz|xz|zstd)")
	return cmd
}
