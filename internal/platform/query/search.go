// Package query builds the dynamic SQL used by list and update operations.
// Every column name handed to it comes from a fixed whitelist in the calling
// repository; only values travel as bind parameters.
package query

import (
	"fmt"
	"strings"
)

// SearchQuery accumulates a conjunction of filters over a FROM clause. The
// data and count statements are rendered from the same predicate so a list
// total always matches the rows it describes.
type SearchQuery struct {
	from    string
	cols    string
	where   string
	args    []interface{}
	orderBy string
}

// NewSearchQuery creates a query selecting cols from the given FROM clause,
// which may include joins.
func NewSearchQuery(from, cols string) *SearchQuery {
	return &SearchQuery{from: from, cols: cols}
}

// Idx returns the next available parameter index.
func (q *SearchQuery) Idx() int { return len(q.args) + 1 }

// AddEq adds an exact-match filter on column.
func (q *SearchQuery) AddEq(column string, value interface{}) {
	q.where += fmt.Sprintf(" AND %s = $%d", column, q.Idx())
	q.args = append(q.args, value)
}

// AddContains adds a case-insensitive substring match of term against any of
// columns. A blank term adds nothing.
func (q *SearchQuery) AddContains(columns []string, term string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	idx := q.Idx()
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, idx)
	}
	q.where += " AND (" + strings.Join(parts, " OR ") + ")"
	q.args = append(q.args, "%"+EscapeLike(term)+"%")
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *SearchQuery) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// CountSQL returns the count query SQL.
func (q *SearchQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.from, q.where)
}

// CountArgs returns the arguments for the count query.
func (q *SearchQuery) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the data query SQL with ORDER BY.
func (q *SearchQuery) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.from, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	return sql
}

// DataArgs returns the arguments for the data query.
func (q *SearchQuery) DataArgs() []interface{} {
	return q.args
}

// EscapeLike escapes the LIKE metacharacters in s so user input only ever
// matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
