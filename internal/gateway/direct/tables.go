package direct

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
)

// schema lists the tables reachable through Tables and their columns.
// Identifiers never come from callers unchecked.
var schema = map[string]map[string]bool{
	"cars": {
		"id": true, "created_at": true, "make": true, "model": true, "year": true,
		"color": true, "license_plate": true, "chassis_number": true, "status": true,
		"description": true, "contact_info": true, "image_url": true, "user_id": true,
	},
}

func unknownTable(table string) error {
	return &gateway.RemoteError{Status: http.StatusNotFound, Code: "unknown_table", Message: fmt.Sprintf("relation %q does not exist", table)}
}

func unknownColumn(table, column string) error {
	return &gateway.RemoteError{Status: http.StatusBadRequest, Code: "unknown_column", Message: fmt.Sprintf("column %s.%s does not exist", table, column)}
}

// whereBuilder renders a Filter as a parameterised WHERE clause.
type whereBuilder struct {
	table string
	cols  map[string]bool
	args  []any
}

func (w *whereBuilder) param(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) cond(c gateway.Condition) (string, error) {
	switch c.Op {
	case gateway.OpEq, gateway.OpILike:
		if !w.cols[c.Column] {
			return "", unknownColumn(w.table, c.Column)
		}
		if c.Op == gateway.OpEq {
			return fmt.Sprintf("%s::text = %s", c.Column, w.param(c.Value)), nil
		}
		return fmt.Sprintf("%s ILIKE %s", c.Column, w.param(c.Value)), nil
	case gateway.OpOr:
		if len(c.Any) == 0 {
			return "FALSE", nil
		}
		parts := make([]string, 0, len(c.Any))
		for _, sub := range c.Any {
			p, err := w.cond(sub)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil
	}
	return "", &gateway.RemoteError{Status: http.StatusBadRequest, Code: "unsupported_filter", Message: fmt.Sprintf("unsupported filter op %q", c.Op)}
}

func buildSelect(table string, f gateway.Filter) (string, []any, error) {
	cols, ok := schema[table]
	if !ok {
		return "", nil, unknownTable(table)
	}
	w := &whereBuilder{table: table, cols: cols}
	parts := make([]string, 0, len(f))
	for _, c := range f {
		p, err := w.cond(c)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, p)
	}

	where := ""
	if len(parts) > 0 {
		where = " WHERE " + strings.Join(parts, " AND ")
	}
	q := fmt.Sprintf(`SELECT coalesce(json_agg(t), '[]'::json) FROM (SELECT * FROM %s%s ORDER BY id) t`, table, where)
	return q, w.args, nil
}

// buildInsert drops id and rejects unknown columns. Columns are emitted in
// name order.
func buildInsert(table string, record map[string]any) (string, []any, error) {
	cols, ok := schema[table]
	if !ok {
		return "", nil, unknownTable(table)
	}

	names := make([]string, 0, len(record))
	for k := range record {
		if k == "id" {
			continue
		}
		if !cols[k] {
			return "", nil, unknownColumn(table, k)
		}
		names = append(names, k)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table), nil, nil
	}

	args := make([]any, len(names))
	marks := make([]string, len(names))
	for i, n := range names {
		args[i] = record[n]
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(marks, ", "))
	return q, args, nil
}

func (g *Gateway) Select(ctx context.Context, table string, f gateway.Filter, dst any) error {
	q, args, err := buildSelect(table, f)
	if err != nil {
		return err
	}

	var raw []byte
	if err := g.db.QueryRowContext(ctx, q, args...).Scan(&raw); err != nil {
		g.log.Error(ctx, "select failed", "table", table, "error", err)
		return dbError(err)
	}
	g.log.Debug(ctx, "select", "table", table, "conditions", len(f))

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode rows: %w", err)
	}
	return nil
}

// Insert requires a signed-in user.
func (g *Gateway) Insert(ctx context.Context, table string, record map[string]any) error {
	if _, err := g.authorize(ctx); err != nil {
		return err
	}
	q, args, err := buildInsert(table, record)
	if err != nil {
		return err
	}
	if _, err := g.db.ExecContext(ctx, q, args...); err != nil {
		g.log.Error(ctx, "insert failed", "table", table, "error", err)
		return dbError(err)
	}
	g.log.Debug(ctx, "insert", "table", table)
	return nil
}
