package gateway

import "strings"

// Op is the kind of a filter condition.
type Op string

const (
	OpEq    Op = "eq"
	OpILike Op = "ilike"
	OpOr    Op = "or"
)

// Condition is one node of a filter tree. Column and Value are used by eq
// and ilike; Any holds the branches of an or.
type Condition struct {
	Op     Op
	Column string
	Value  string
	Any    []Condition
}

// Filter is a list of conditions combined with AND. The zero value matches
// every row.
type Filter []Condition

// Eq matches rows whose column equals value.
func Eq(column, value string) Condition {
	return Condition{Op: OpEq, Column: column, Value: value}
}

// ILike matches rows whose column matches the SQL LIKE pattern ignoring case.
func ILike(column, pattern string) Condition {
	return Condition{Op: OpILike, Column: column, Value: pattern}
}

// Or matches rows satisfying at least one of conds.
func Or(conds ...Condition) Condition {
	return Condition{Op: OpOr, Any: conds}
}

// Where builds a Filter from conds.
func Where(conds ...Condition) Filter {
	return Filter(conds)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains returns a LIKE pattern matching text anywhere in a value. LIKE
// metacharacters inside text are escaped so they match literally.
func Contains(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}
