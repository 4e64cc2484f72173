package tably

import (
	"fmt"
	"strings"
)

// node is one vertex of a captured expression tree: an identifier, a
// literal, or a call. Trees are built at the call site and not evaluated
// until handed to the evaluator with an explicit context.
type node interface {
	render() string
}

type identNode struct {
	name string
}

func (n identNode) render() string { return n.name }

type litNode struct {
	val Value
}

func (n litNode) render() string {
	if n.val.kind.IsTextual() {
		return fmt.Sprintf("%q", n.val.s)
	}
	return n.val.String()
}

type callNode struct {
	fn   string
	args []node
}

func (n callNode) render() string {
	parts := make([]string, len(n.args))
	for i, a := range n.args {
		parts[i] = a.render()
	}
	if len(n.args) == 2 && !isNamedFn(n.fn) {
		return fmt.Sprintf("(%s %s %s)", parts[0], n.fn, parts[1])
	}
	return fmt.Sprintf("%s(%s)", n.fn, strings.Join(parts, ", "))
}

func isNamedFn(fn string) bool {
	switch fn {
	case "+", "-", "*", "/", "%", ">", "<", ">=", "<=", "==", "!=", "&", "|", ":":
		return false
	}
	return true
}

// Expr is a captured, unevaluated expression plus an optional result name.
type Expr struct {
	n     node
	label string
}

// String renders the expression for logs and error messages.
func (e Expr) String() string {
	if e.n == nil {
		return "<empty>"
	}
	if e.label != "" {
		return fmt.Sprintf("%s = %s", e.label, e.n.render())
	}
	return e.n.render()
}

// Col references a column by name.
func Col(name string) Expr {
	return Expr{n: identNode{name: name}}
}

// Lit captures a literal value. Supported types: int, int64, float64,
// string, bool.
func Lit(value interface{}) Expr {
	switch v := value.(type) {
	case int:
		return Expr{n: litNode{val: IntValue(int64(v))}}
	case int64:
		return Expr{n: litNode{val: IntValue(v)}}
	case float64:
		return Expr{n: litNode{val: FloatValue(v)}}
	case string:
		return Expr{n: litNode{val: StrValue(v)}}
	case bool:
		return Expr{n: litNode{val: BoolValue(v)}}
	default:
		panic(fmt.Sprintf("unsupported literal type: %T", value))
	}
}

// CallFn captures a call to a named function. Whitelisted selection
// helpers and evaluator builtins are dispatched by the evaluator; in a
// selecting context any other call form is evaluated in the enclosing
// scope instead.
func CallFn(name string, args ...Expr) Expr {
	ns := make([]node, len(args))
	for i, a := range args {
		ns[i] = a.n
	}
	return Expr{n: callNode{fn: name, args: ns}}
}

// Alias names the expression's result, for computed columns and renames.
func (e Expr) Alias(name string) Expr {
	e.label = name
	return e
}

// As is a shorthand for Alias.
func (e Expr) As(name string) Expr { return e.Alias(name) }

func binOp(left, right Expr, op string) Expr {
	return Expr{n: callNode{fn: op, args: []node{left.n, right.n}}}
}

func unaryOp(e Expr, op string) Expr {
	return Expr{n: callNode{fn: op, args: []node{e.n}}, label: e.label}
}

// Arithmetic operations

func (e Expr) Add(o Expr) Expr { return binOp(e, o, "+") }
func (e Expr) Sub(o Expr) Expr { return binOp(e, o, "-") }
func (e Expr) Mul(o Expr) Expr { return binOp(e, o, "*") }
func (e Expr) Div(o Expr) Expr { return binOp(e, o, "/") }
func (e Expr) Mod(o Expr) Expr { return binOp(e, o, "%") }

// Comparison operations

func (e Expr) Gt(o Expr) Expr { return binOp(e, o, ">") }
func (e Expr) Lt(o Expr) Expr { return binOp(e, o, "<") }
func (e Expr) Ge(o Expr) Expr { return binOp(e, o, ">=") }
func (e Expr) Le(o Expr) Expr { return binOp(e, o, "<=") }
func (e Expr) Eq(o Expr) Expr { return binOp(e, o, "==") }
func (e Expr) Ne(o Expr) Expr { return binOp(e, o, "!=") }

// Boolean operations

func (e Expr) And(o Expr) Expr { return binOp(e, o, "&") }
func (e Expr) Or(o Expr) Expr  { return binOp(e, o, "|") }

// Not negates a logical expression. In a selecting context it returns
// the complement of the inner position set.
func (e Expr) Not() Expr { return unaryOp(e, "!") }

// Aggregations

// Sum applies sum aggregation to the expression.
func (e Expr) Sum() Expr { return unaryOp(e, "sum") }

// Mean applies mean aggregation to the expression.
func (e Expr) Mean() Expr { return unaryOp(e, "mean") }

// Min applies min aggregation to the expression.
func (e Expr) Min() Expr { return unaryOp(e, "min") }

// Max applies max aggregation to the expression.
func (e Expr) Max() Expr { return unaryOp(e, "max") }

// Median applies median aggregation to the expression.
func (e Expr) Median() Expr { return unaryOp(e, "median") }

// First takes the first value of the expression.
func (e Expr) First() Expr { return unaryOp(e, "first") }

// Last takes the last value of the expression.
func (e Expr) Last() Expr { return unaryOp(e, "last") }

// NUnique counts distinct values of the expression.
func (e Expr) NUnique() Expr { return unaryOp(e, "n_distinct") }

// Count counts non-null values of the expression.
func (e Expr) Count() Expr { return unaryOp(e, "count") }

// N is the group size: the number of rows in the current evaluation
// context (the whole table when ungrouped).
func N() Expr {
	return Expr{n: callNode{fn: "n"}}
}

// IsNull tests values for missingness.
func (e Expr) IsNull() Expr { return unaryOp(e, "is_null") }

// IsNotNull tests values for presence.
func (e Expr) IsNotNull() Expr { return unaryOp(e, "is_not_null") }

// Cast converts values to the target data type.
func (e Expr) Cast(to DataType) Expr {
	return Expr{
		n:     callNode{fn: "cast", args: []node{e.n, litNode{val: IntValue(int64(to))}}},
		label: e.label,
	}
}

// Bin assigns each numeric value to a half-open interval [b[i], b[i+1])
// delimited by the given ascending break points, yielding a categorical
// column of interval labels. Values outside all intervals become null.
func (e Expr) Bin(breaks ...float64) Expr {
	args := make([]node, 0, len(breaks)+1)
	args = append(args, e.n)
	for _, b := range breaks {
		args = append(args, litNode{val: FloatValue(b)})
	}
	return Expr{n: callNode{fn: "bin", args: args}, label: e.label}
}

// IfElse picks elementwise between yes and no based on cond.
func IfElse(cond, yes, no Expr) Expr {
	return Expr{n: callNode{fn: "if_else", args: []node{cond.n, yes.n, no.n}}}
}

// String operations

// StrLen returns the length of each string in characters.
func (e Expr) StrLen() Expr { return unaryOp(e, "str_len") }

// StrToLowercase converts all characters to lowercase.
func (e Expr) StrToLowercase() Expr { return unaryOp(e, "to_lower") }

// StrToUppercase converts all characters to uppercase.
func (e Expr) StrToUppercase() Expr { return unaryOp(e, "to_upper") }

// StrContains checks whether string values contain a literal substring.
func (e Expr) StrContains(pattern string) Expr {
	return Expr{n: callNode{fn: "str_contains", args: []node{e.n, litNode{val: StrValue(pattern)}}}}
}

// StrStartsWith checks whether string values start with a prefix.
func (e Expr) StrStartsWith(prefix string) Expr {
	return Expr{n: callNode{fn: "str_starts_with", args: []node{e.n, litNode{val: StrValue(prefix)}}}}
}

// StrEndsWith checks whether string values end with a suffix.
func (e Expr) StrEndsWith(suffix string) Expr {
	return Expr{n: callNode{fn: "str_ends_with", args: []node{e.n, litNode{val: StrValue(suffix)}}}}
}

// Ordering

// Desc wraps an ordering key so Arrange sorts it in descending order.
func Desc(e Expr) Expr { return unaryOp(e, "desc") }

// Selection helpers. These are the whitelisted call forms a selecting
// context resolves against the column-name sequence; their arguments are
// evaluated in the enclosing scope only.

// StartsWith selects all columns whose name starts with the prefix.
func StartsWith(prefix Expr) Expr {
	return Expr{n: callNode{fn: "starts_with", args: []node{prefix.n}}}
}

// EndsWith selects all columns whose name ends with the suffix.
func EndsWith(suffix Expr) Expr {
	return Expr{n: callNode{fn: "ends_with", args: []node{suffix.n}}}
}

// Matches selects all columns whose name matches the regular expression.
func Matches(pattern Expr) Expr {
	return Expr{n: callNode{fn: "matches", args: []node{pattern.n}}}
}

// ColRange selects the inclusive interval of columns between from and
// to. Descending ranges (from after to) are supported.
func ColRange(from, to Expr) Expr {
	return Expr{n: callNode{fn: ":", args: []node{from.n, to.n}}}
}

// Cols concatenates several column references into one selection.
func Cols(names ...string) Expr {
	ns := make([]node, len(names))
	for i, name := range names {
		ns[i] = identNode{name: name}
	}
	return Expr{n: callNode{fn: "c", args: ns}}
}

// Positions selects columns by 1-based ordinal position. Negative
// positions exclude the corresponding column.
func Positions(ps ...int) Expr {
	ns := make([]node, len(ps))
	for i, p := range ps {
		ns[i] = litNode{val: IntValue(int64(p))}
	}
	return Expr{n: callNode{fn: "c", args: ns}}
}

// Everything selects all columns in table order.
func Everything() Expr {
	return Expr{n: callNode{fn: "everything"}}
}
