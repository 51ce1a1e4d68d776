package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nao1215/analystdb"
	"github.com/nao1215/analystdb/domain/model"
)

// Output formats understood by --output.
const (
	outputJSON  = "json"
	outputTable = "table"
)

func validateOutput(format string) error {
	switch format {
	case outputJSON, outputTable:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want json or table)", format)
	}
}

func renderJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// renderOutcome prints a statement result.
func renderOutcome(w io.Writer, outcome analystdb.Outcome, format string) error {
	if format == outputJSON {
		return renderJSON(w, outcome)
	}
	if outcome.Kind == analystdb.WriteStatement {
		_, err := fmt.Fprintf(w, "(%d rows affected)\n", outcome.Write.Affected)
		return err
	}

	rows := make([][]string, len(outcome.ResultSet.Rows))
	for i, row := range outcome.ResultSet.Rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cell.String()
		}
	}
	return renderRows(w, outcome.ResultSet.Columns, rows)
}

// renderTable prints a decoded file.
func renderTable(w io.Writer, t *model.Table, format string) error {
	if format == outputJSON {
		return renderJSON(w, t)
	}
	return renderRows(w, t.Headers, t.Rows)
}

// renderSchema prints one line per table.
func renderSchema(w io.Writer, schema analystdb.Schema, format string) error {
	if format == outputJSON {
		return renderJSON(w, schema)
	}
	if len(schema) == 0 {
		_, err := fmt.Fprintln(w, "(no tables)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Columns"})
	for _, name := range schema.TableNames() {
		t.AppendRow(table.Row{name, len(schema[name])})
	}
	t.Render()
	return nil
}

// renderImportResults prints what an import registered.
func renderImportResults(w io.Writer, results []analystdb.ImportResult, format string) error {
	if format == outputJSON {
		return renderJSON(w, results)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Source", "Rows"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Table, r.Source, r.Rows})
	}
	t.Render()
	return nil
}

func renderRows(w io.Writer, cols []string, rows [][]string) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}
