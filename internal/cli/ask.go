package cli

import (
	"fmt"

	"github.com/nao1215/analystdb/internal/script"
	"github.com/spf13/cobra"
)

func newAskCommand() *cobra.Command {
	var (
		run    bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Generate SQL for a question with the generate_sql script",
		Long: `Pass the question and the current schema to the generate_sql capability and
print the SQL it returns. With --run the generated statement is executed
too. The generated text is not validated before running it.`,
		Args: cobra.ExactArgs(1),
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

			schema, err := store.Schema(cmd.Context())
			if err != nil {
				return err
			}
			sqlText, err := script.GenerateSQL(cmd.Context(), a.invoker(), args[0], schema)
			if err != nil {
				return err
			}
			if !run {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), sqlText)
				return err
			}

			outcome, err := store.Execute(cmd.Context(), sqlText)
			if err != nil {
				return err
			}
			return renderOutcome(cmd.OutOrStdout(), outcome, output)
		},
	}
	cmd.Flags().BoolVar(&run, "run", false, "execute the generated SQL")
	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "output format for --run (json|table)")
	return cmd
}
