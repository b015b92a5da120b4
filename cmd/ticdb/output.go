package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/mit-kavli-institute/ticdb/rdb/database"
	"github.com/mit-kavli-institute/ticdb/rdb/schema"
)

var formats = []string{"table", "json", "yaml", "csv"}

func validFormat(format string) bool {
	return slices.Contains(formats, format)
}

func writeResult(w io.Writer, format string, result *database.Result) error {
	rows := make([][]any, 0, result.Len())
	for _, row := range result.Rows {
		rows = append(rows, row.Values())
	}
	return writeRows(w, format, result.Columns, rows)
}

func writeSchema(w io.Writer, format string, table *schema.Table) error {
	rows := make([][]any, 0, len(table.Columns))
	for _, c := range table.Columns {
		rows = append(rows, []any{c.Name, c.Type, c.Nullable, c.PrimaryKey})
	}
	return writeRows(w, format, []string{"name", "type", "nullable", "primary_key"}, rows)
}

func writeRows(w io.Writer, format string, columns []string, rows [][]any) error {
	switch format {
	case "table":
		data := pterm.TableData{columns}
		for _, row := range rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = formatValue(v, "NULL")
			}
			data = append(data, cells)
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(w).Render()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records(columns, rows))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records(columns, rows)); err != nil {
			return err
		}
		return enc.Close()
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(columns); err != nil {
			return err
		}
		for _, row := range rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = formatValue(v, "")
			}
			if err := cw.Write(cells); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return errors.Errorf("unsupported format %q", format)
	}
}

func records(columns []string, rows [][]any) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]any, len(columns))
		for i, c := range columns {
			m[c] = row[i]
		}
		out = append(out, m)
	}
	return out
}

func formatValue(v any, null string) string {
	switch x := v.(type) {
	case nil:
		return null
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
