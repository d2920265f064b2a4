package jobquery

import (
	"fmt"
	"strings"
)

// OrderBy is appended to every compiled query. seq is the submission order;
// id breaks ties between journals merged from different runs.
const OrderBy = "seq ASC, id COLLATE BINARY ASC"

// Compile turns q into a SELECT of columns from table. Values are always
// bound as parameters, never interpolated. q is validated first.
func Compile(table, columns string, q Query) (string, []any, error) {
	if err := Validate(q); err != nil {
		return "", nil, fmt.Errorf("compile query: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", columns, table)

	where, params := compilePredicate(q.Filter)
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(OrderBy)
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

// compilePredicate returns "" for a predicate that matches everything.
func compilePredicate(p Predicate) (string, []any) {
	switch pred := p.(type) {
	case Equals:
		return string(pred.Field) + " = ?", []any{pred.Value}
	case *Equals:
		return string(pred.Field) + " = ?", []any{pred.Value}
	case And:
		return compileAnd(pred.Predicates)
	case *And:
		return compileAnd(pred.Predicates)
	}
	return "", nil
}

func compileAnd(preds []Predicate) (string, []any) {
	var (
		parts  []string
		params []any
	)
	for _, p := range preds {
		sql, args := compilePredicate(p)
		if sql == "" {
			continue
		}
		parts = append(parts, sql)
		params = append(params, args...)
	}
	return strings.Join(parts, " AND "), params
}
