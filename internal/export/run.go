package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"custid/internal/services"
)

// Cell is one result value. Null distinguishes SQL NULL from the empty string.
type Cell struct {
	Value string
	Null  bool
}

// Table is a fully materialized result set.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Querier is satisfied by *sql.DB and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Run executes stmt with rebind applied to its placeholders.
func Run(ctx context.Context, db Querier, stmt Statement, rebind func(string) string) (*Table, error) {
	query := stmt.SQL
	if rebind != nil {
		query = rebind(query)
	}
	rows, err := db.QueryContext(ctx, query, stmt.Args...)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "export", "query", stmt.Name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	table := &Table{Columns: columns}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make([]Cell, len(columns))
		for i, v := range values {
			row[i] = toCell(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "export", "query", stmt.Name, err)
	}
	return table, nil
}

func toCell(v any) Cell {
	switch val := v.(type) {
	case nil:
		return Cell{Null: true}
	case []byte:
		return Cell{Value: string(val)}
	case string:
		return Cell{Value: val}
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return Cell{Value: val.Format("2006-01-02")}
		}
		return Cell{Value: val.Format("2006-01-02 15:04:05")}
	default:
		return Cell{Value: fmt.Sprint(val)}
	}
}

// Preview returns at most limit rows formatted for terminal display: NULL is
// spelled out and long values are shortened to 30 characters.
func (t *Table) Preview(limit int) [][]string {
	if limit <= 0 || limit > len(t.Rows) {
		limit = len(t.Rows)
	}
	out := make([][]string, 0, limit)
	for _, row := range t.Rows[:limit] {
		line := make([]string, len(row))
		for i, c := range row {
			switch {
			case c.Null:
				line[i] = "NULL"
			case len([]rune(c.Value)) > 30:
				line[i] = string([]rune(c.Value)[:27]) + "..."
			default:
				line[i] = c.Value
			}
		}
		out = append(out, line)
	}
	return out
}
