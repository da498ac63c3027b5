package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
)

const pathTables = "/rest/v1/"

func (c *Client) Select(ctx context.Context, table string, f gateway.Filter, dst any) error {
	q, err := encodeFilter(f)
	if err != nil {
		return err
	}
	q.Set("select", "*")
	return c.do(ctx, request{
		method: http.MethodGet,
		path:   pathTables + url.PathEscape(table),
		query:  q,
		authed: true,
	}, dst)
}

func (c *Client) Insert(ctx context.Context, table string, record map[string]any) error {
	return c.do(ctx, request{
		method:   http.MethodPost,
		path:     pathTables + url.PathEscape(table),
		header:   http.Header{headerPrefer: {"return=minimal"}},
		jsonBody: record,
		authed:   true,
	}, nil)
}

// encodeFilter renders f as query parameters: col=eq.v, col=ilike.p and
// or=(a.ilike.p,b.eq.v). Repeated parameters are combined with AND.
func encodeFilter(f gateway.Filter) (url.Values, error) {
	q := url.Values{}
	for _, c := range f {
		switch c.Op {
		case gateway.OpEq:
			q.Add(c.Column, "eq."+c.Value)
		case gateway.OpILike:
			q.Add(c.Column, "ilike."+likeToWildcard(c.Value))
		case gateway.OpOr:
			inner, err := encodeBranches(c.Any)
			if err != nil {
				return nil, err
			}
			q.Add("or", "("+inner+")")
		default:
			return nil, fmt.Errorf("unsupported filter op %q", c.Op)
		}
	}
	return q, nil
}

func encodeBranches(conds []gateway.Condition) (string, error) {
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		switch c.Op {
		case gateway.OpEq:
			parts = append(parts, c.Column+".eq."+quoteValue(c.Value))
		case gateway.OpILike:
			parts = append(parts, c.Column+".ilike."+quoteValue(likeToWildcard(c.Value)))
		case gateway.OpOr:
			inner, err := encodeBranches(c.Any)
			if err != nil {
				return "", err
			}
			parts = append(parts, "or("+inner+")")
		default:
			return "", fmt.Errorf("unsupported filter op %q", c.Op)
		}
	}
	return strings.Join(parts, ","), nil
}

// likeToWildcard replaces unescaped % with the URL wildcard *. Escape
// sequences are passed through for the database to interpret.
func likeToWildcard(pattern string) string {
	var b strings.Builder
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			b.WriteRune(r)
			escaped = true
		case r == '%':
			b.WriteRune('*')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// quoteValue double-quotes values containing characters reserved inside
// logical trees.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, `,.:()" \`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}
