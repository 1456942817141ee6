package query

import (
	"fmt"
	"strings"
)

// Assignment is one column/value pair of an INSERT or UPDATE. Cast, when set,
// is appended to the placeholder (for example "date" renders $3::date).
type Assignment struct {
	Column string
	Value  interface{}
	Cast   string
}

func placeholder(idx int, cast string) string {
	if cast == "" {
		return fmt.Sprintf("$%d", idx)
	}
	return fmt.Sprintf("$%d::%s", idx, cast)
}

// InsertSQL renders an INSERT for the given assignments. returning may be
// empty.
func InsertSQL(table string, set []Assignment, returning string) (string, []interface{}) {
	cols := make([]string, len(set))
	vals := make([]string, len(set))
	args := make([]interface{}, len(set))
	for i, a := range set {
		cols[i] = a.Column
		vals[i] = placeholder(i+1, a.Cast)
		args[i] = a.Value
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(vals, ", "))
	if returning != "" {
		sql += " RETURNING " + returning
	}
	return sql, args
}

// UpdateSQL renders "UPDATE table SET ... WHERE whereCol = $n" touching only
// the supplied assignments. It returns an empty statement when set is empty.
func UpdateSQL(table string, set []Assignment, whereCol string, whereVal interface{}) (string, []interface{}) {
	if len(set) == 0 {
		return "", nil
	}
	parts := make([]string, len(set))
	args := make([]interface{}, 0, len(set)+1)
	for i, a := range set {
		parts[i] = fmt.Sprintf("%s = %s", a.Column, placeholder(i+1, a.Cast))
		args = append(args, a.Value)
	}
	args = append(args, whereVal)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d", table, strings.Join(parts, ", "), whereCol, len(set)+1)
	return sql, args
}
