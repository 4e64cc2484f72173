package tably

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// colSet is the column namespace visible during mutating evaluation.
// Columns computed earlier in the same verb call are added immediately,
// so later arguments can see them.
type colSet struct {
	order []string
	vecs  map[string]Vector
}

func newColSet(t *Table) *colSet {
	cs := &colSet{vecs: make(map[string]Vector, len(t.cols))}
	for _, c := range t.cols {
		cs.order = append(cs.order, c.name)
		cs.vecs[c.name] = c.data
	}
	return cs
}

func (c *colSet) lookup(name string) (Vector, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.vecs[name]
	return v, ok
}

func (c *colSet) set(name string, v Vector) {
	if _, ok := c.vecs[name]; !ok {
		c.order = append(c.order, name)
	}
	c.vecs[name] = v
}

// evalNode walks an expression tree in mutating context. Bare
// identifiers resolve to column vectors, columns shadowing the enclosing
// scope; literals yield length-1 vectors. Results have natural length
// (1 or rows); the calling verb recycles or rejects as its contract
// requires.
func evalNode(n node, cols *colSet, env *Env, rows int) (Vector, error) {
	switch nd := n.(type) {
	case identNode:
		if v, ok := cols.lookup(nd.name); ok {
			return v, nil
		}
		if v, ok := env.lookupOrNone(nd.name); ok {
			if len(v) != 1 && len(v) != rows {
				return nil, errRecycleLength(nd.name, len(v), rows)
			}
			return v, nil
		}
		return nil, errUnknownColumn(nd.name)

	case litNode:
		return Vector{nd.val}, nil

	case callNode:
		return evalCall(nd, cols, env, rows)
	}
	return nil, errAmbiguous("", "unsupported expression")
}

func evalCall(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	if err := checkArity(nd); err != nil {
		return nil, err
	}
	switch nd.fn {
	case "+", "-", "*", "/", "%":
		return evalArith(nd, cols, env, rows)
	case ">", "<", ">=", "<=", "==", "!=":
		return evalCompare(nd, cols, env, rows)
	case "&", "|":
		return evalLogic(nd, cols, env, rows)
	case "!":
		return evalNegate(nd, cols, env, rows)
	case "sum", "mean", "min", "max", "median", "first", "last", "count", "n_distinct":
		return evalAggregate(nd, cols, env, rows)
	case "n":
		return Vector{IntValue(int64(rows))}, nil
	case "is_null", "is_not_null":
		return evalNullTest(nd, cols, env, rows)
	case "cast":
		return evalCast(nd, cols, env, rows)
	case "bin":
		return evalBin(nd, cols, env, rows)
	case "if_else":
		return evalIfElse(nd, cols, env, rows)
	case "str_len", "to_lower", "to_upper", "str_contains", "str_starts_with", "str_ends_with":
		return evalString(nd, cols, env, rows)
	case "identity":
		return evalNode(nd.args[0], cols, env, rows)
	case "desc":
		return nil, errAmbiguous("desc", "desc() is only valid as an ordering key")
	}
	return nil, errAmbiguous(nd.fn, "unknown function")
}

// checkArity validates argument counts for trees built through CallFn
// rather than the typed constructors.
func checkArity(nd callNode) error {
	want := -1
	switch nd.fn {
	case "+", "-", "*", "/", "%", ">", "<", ">=", "<=", "==", "!=", "&", "|":
		want = 2
	case "!", "sum", "mean", "min", "max", "median", "first", "last",
		"count", "n_distinct", "is_null", "is_not_null", "identity", "desc":
		want = 1
	case "n":
		want = 0
	case "cast":
		want = 2
	case "if_else":
		want = 3
	}
	if want >= 0 && len(nd.args) != want {
		return errAmbiguous(nd.fn, "wrong number of arguments")
	}
	if nd.fn == "bin" && len(nd.args) < 3 {
		return errAmbiguous("bin", "needs a value and at least two break points")
	}
	switch nd.fn {
	case "str_len", "to_lower", "to_upper":
		if len(nd.args) != 1 {
			return errAmbiguous(nd.fn, "wrong number of arguments")
		}
	case "str_contains", "str_starts_with", "str_ends_with":
		if len(nd.args) != 2 {
			return errAmbiguous(nd.fn, "wrong number of arguments")
		}
	}
	return nil
}

// evalArgs evaluates call arguments left to right and broadcasts them to
// a common length (each must have length 1 or the common length).
func evalArgs(nd callNode, cols *colSet, env *Env, rows int) ([]Vector, int, error) {
	args := make([]Vector, len(nd.args))
	width := 1
	for i, a := range nd.args {
		v, err := evalNode(a, cols, env, rows)
		if err != nil {
			return nil, 0, err
		}
		if len(v) > width {
			width = len(v)
		}
		args[i] = v
	}
	for i, v := range args {
		if len(v) == width {
			continue
		}
		if len(v) != 1 {
			return nil, 0, errRecycleLength(nd.fn, len(v), width)
		}
		args[i] = v.recycle(width)
	}
	return args, width, nil
}

func evalArith(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	args, width, err := evalArgs(nd, cols, env, rows)
	if err != nil {
		return nil, err
	}
	left, right := args[0], args[1]
	out := make(Vector, width)
	for i := 0; i < width; i++ {
		l, r := left[i], right[i]
		if !l.kind.IsNumeric() || !r.kind.IsNumeric() {
			return nil, errTypeMismatch(nd.fn, l.kind, r.kind)
		}
		if l.null || r.null {
			out[i] = NullValue(Float64)
			continue
		}
		bothInt := l.kind.Family() == FamilyInteger && r.kind.Family() == FamilyInteger
		switch nd.fn {
		case "+":
			if bothInt {
				out[i] = IntValue(l.i + r.i)
			} else {
				out[i] = FloatValue(l.Float() + r.Float())
			}
		case "-":
			if bothInt {
				out[i] = IntValue(l.i - r.i)
			} else {
				out[i] = FloatValue(l.Float() - r.Float())
			}
		case "*":
			if bothInt {
				out[i] = IntValue(l.i * r.i)
			} else {
				out[i] = FloatValue(l.Float() * r.Float())
			}
		case "/":
			// Division always yields a float, matching numeric-vector
			// semantics rather than integer truncation.
			out[i] = FloatValue(l.Float() / r.Float())
		case "%":
			if bothInt {
				if r.i == 0 {
					out[i] = NullValue(Int64)
				} else {
					out[i] = IntValue(l.i % r.i)
				}
			} else {
				out[i] = FloatValue(math.Mod(l.Float(), r.Float()))
			}
		}
	}
	return out, nil
}

func evalCompare(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	args, width, err := evalArgs(nd, cols, env, rows)
	if err != nil {
		return nil, err
	}
	left, right := args[0], args[1]
	out := make(Vector, width)
	for i := 0; i < width; i++ {
		l, r := left[i], right[i]
		if l.null || r.null {
			out[i] = NullValue(Boolean)
			continue
		}
		cmp, err := compareValues(nd.fn, l, r)
		if err != nil {
			return nil, err
		}
		var res bool
		switch nd.fn {
		case ">":
			res = cmp > 0
		case "<":
			res = cmp < 0
		case ">=":
			res = cmp >= 0
		case "<=":
			res = cmp <= 0
		case "==":
			res = cmp == 0
		case "!=":
			res = cmp != 0
		}
		out[i] = BoolValue(res)
	}
	return out, nil
}

// compareValues orders two non-null values: negative, zero, or positive.
func compareValues(op string, l, r Value) (int, error) {
	switch {
	case l.kind.IsNumeric() && r.kind.IsNumeric():
		lf, rf := l.Float(), r.Float()
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		}
		return 0, nil
	case l.kind.IsTextual() && r.kind.IsTextual():
		return strings.Compare(l.s, r.s), nil
	case l.kind.Family() == FamilyBoolean && r.kind.Family() == FamilyBoolean:
		// false orders before true.
		switch {
		case l.b == r.b:
			return 0, nil
		case r.b:
			return -1, nil
		}
		return 1, nil
	}
	return 0, errTypeMismatch(op, l.kind, r.kind)
}

func evalLogic(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	args, width, err := evalArgs(nd, cols, env, rows)
	if err != nil {
		return nil, err
	}
	left, right := args[0], args[1]
	out := make(Vector, width)
	for i := 0; i < width; i++ {
		l, r := left[i], right[i]
		if (!l.null && l.kind.Family() != FamilyBoolean) || (!r.null && r.kind.Family() != FamilyBoolean) {
			return nil, errTypeMismatch(nd.fn, l.kind, r.kind)
		}
		// Three-valued logic: a missing operand only forces a missing
		// result when the other operand does not already decide it.
		switch nd.fn {
		case "&":
			switch {
			case !l.null && !l.b, !r.null && !r.b:
				out[i] = BoolValue(false)
			case l.null || r.null:
				out[i] = NullValue(Boolean)
			default:
				out[i] = BoolValue(true)
			}
		case "|":
			switch {
			case !l.null && l.b, !r.null && r.b:
				out[i] = BoolValue(true)
			case l.null || r.null:
				out[i] = NullValue(Boolean)
			default:
				out[i] = BoolValue(false)
			}
		}
	}
	return out, nil
}

func evalNegate(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	v, err := evalNode(nd.args[0], cols, env, rows)
	if err != nil {
		return nil, err
	}
	out := make(Vector, len(v))
	for i, val := range v {
		if val.null {
			out[i] = NullValue(Boolean)
			continue
		}
		if val.kind.Family() != FamilyBoolean {
			return nil, errTypeMismatch("!", val.kind, Boolean)
		}
		out[i] = BoolValue(!val.b)
	}
	return out, nil
}

func evalAggregate(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	v, err := evalNode(nd.args[0], cols, env, rows)
	if err != nil {
		return nil, err
	}
	switch nd.fn {
	case "first":
		if len(v) == 0 {
			return Vector{NullValue(Float64)}, nil
		}
		return Vector{v[0]}, nil
	case "last":
		if len(v) == 0 {
			return Vector{NullValue(Float64)}, nil
		}
		return Vector{v[len(v)-1]}, nil
	case "count":
		n := 0
		for _, val := range v {
			if !val.null {
				n++
			}
		}
		return Vector{IntValue(int64(n))}, nil
	case "n_distinct":
		seen := make(map[string]bool)
		for _, val := range v {
			seen[val.key()] = true
		}
		return Vector{IntValue(int64(len(seen)))}, nil
	}

	// Numeric reductions skip missing values.
	kind := v.kind()
	if nd.fn == "min" || nd.fn == "max" {
		if res, ok, err := minMaxAny(nd.fn, v); err != nil {
			return nil, err
		} else if ok {
			return Vector{res}, nil
		}
		return Vector{NullValue(kind)}, nil
	}
	if !kind.IsNumeric() {
		return nil, errTypeMismatch(nd.fn, kind, Float64)
	}
	var nums []float64
	allInt := true
	for _, val := range v {
		if val.null {
			continue
		}
		if val.kind.Family() != FamilyInteger {
			allInt = false
		}
		nums = append(nums, val.Float())
	}
	if len(nums) == 0 {
		return Vector{NullValue(kind)}, nil
	}
	switch nd.fn {
	case "sum":
		total := 0.0
		for _, x := range nums {
			total += x
		}
		if allInt {
			return Vector{IntValue(int64(total))}, nil
		}
		return Vector{FloatValue(total)}, nil
	case "mean":
		total := 0.0
		for _, x := range nums {
			total += x
		}
		return Vector{FloatValue(total / float64(len(nums)))}, nil
	case "median":
		sort.Float64s(nums)
		mid := len(nums) / 2
		if len(nums)%2 == 1 {
			return Vector{FloatValue(nums[mid])}, nil
		}
		return Vector{FloatValue((nums[mid-1] + nums[mid]) / 2)}, nil
	}
	return nil, errAmbiguous(nd.fn, "unknown aggregation")
}

// minMaxAny reduces numeric or textual vectors; ok is false when every
// value is missing.
func minMaxAny(fn string, v Vector) (Value, bool, error) {
	var best Value
	found := false
	for _, val := range v {
		if val.null {
			continue
		}
		if !found {
			best, found = val, true
			continue
		}
		cmp, err := compareValues(fn, val, best)
		if err != nil {
			return Value{}, false, err
		}
		if (fn == "min" && cmp < 0) || (fn == "max" && cmp > 0) {
			best = val
		}
	}
	return best, found, nil
}

func evalNullTest(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	v, err := evalNode(nd.args[0], cols, env, rows)
	if err != nil {
		return nil, err
	}
	want := nd.fn == "is_null"
	out := make(Vector, len(v))
	for i, val := range v {
		out[i] = BoolValue(val.null == want)
	}
	return out, nil
}

func evalCast(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	v, err := evalNode(nd.args[0], cols, env, rows)
	if err != nil {
		return nil, err
	}
	lit, ok := nd.args[1].(litNode)
	if !ok {
		return nil, errAmbiguous("cast", "cast target must be a literal type")
	}
	target := DataType(lit.val.i)
	out := make(Vector, len(v))
	for i, val := range v {
		out[i] = castValue(val, target)
	}
	return out, nil
}

// castValue converts a single value; unconvertible values become null.
func castValue(v Value, to DataType) Value {
	if v.null {
		return NullValue(to)
	}
	switch to.Family() {
	case FamilyInteger:
		switch {
		case v.kind.IsNumeric():
			return IntValue(int64(v.Float()))
		case v.kind.Family() == FamilyBoolean:
			if v.b {
				return IntValue(1)
			}
			return IntValue(0)
		case v.kind.IsTextual():
			if n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64); err == nil {
				return IntValue(n)
			}
		}
	case FamilyFloat:
		switch {
		case v.kind.IsNumeric():
			return FloatValue(v.Float())
		case v.kind.IsTextual():
			if f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64); err == nil {
				return FloatValue(f)
			}
		}
	case FamilyString:
		return StrValue(v.String())
	case FamilyFactor:
		return FactorValue(v.String())
	case FamilyBoolean:
		switch {
		case v.kind.Family() == FamilyBoolean:
			return v
		case v.kind.IsNumeric():
			return BoolValue(v.Float() != 0)
		case v.kind.IsTextual():
			if b, err := strconv.ParseBool(strings.ToLower(v.s)); err == nil {
				return BoolValue(b)
			}
		}
	}
	return NullValue(to)
}

func evalBin(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	v, err := evalNode(nd.args[0], cols, env, rows)
	if err != nil {
		return nil, err
	}
	breaks := make([]float64, 0, len(nd.args)-1)
	for _, a := range nd.args[1:] {
		lit, ok := a.(litNode)
		if !ok || !lit.val.kind.IsNumeric() {
			return nil, errAmbiguous("bin", "break points must be numeric literals")
		}
		breaks = append(breaks, lit.val.Float())
	}
	out := make(Vector, len(v))
	for i, val := range v {
		if val.null {
			out[i] = NullValue(Factor)
			continue
		}
		if !val.kind.IsNumeric() {
			return nil, errTypeMismatch("bin", val.kind, Float64)
		}
		out[i] = NullValue(Factor)
		x := val.Float()
		for b := 0; b+1 < len(breaks); b++ {
			if x >= breaks[b] && x < breaks[b+1] {
				out[i] = FactorValue(fmt.Sprintf("[%g,%g)", breaks[b], breaks[b+1]))
				break
			}
		}
	}
	return out, nil
}

func evalIfElse(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	args, width, err := evalArgs(nd, cols, env, rows)
	if err != nil {
		return nil, err
	}
	cond, yes, no := args[0], args[1], args[2]
	out := make(Vector, width)
	for i := 0; i < width; i++ {
		c := cond[i]
		if c.null {
			out[i] = NullValue(yes[i].kind)
			continue
		}
		if c.kind.Family() != FamilyBoolean {
			return nil, errTypeMismatch("if_else", c.kind, Boolean)
		}
		if !yes[i].null && !no[i].null && yes[i].kind.Family() != no[i].kind.Family() &&
			!(yes[i].kind.IsNumeric() && no[i].kind.IsNumeric()) {
			return nil, errTypeMismatch("if_else", yes[i].kind, no[i].kind)
		}
		if c.b {
			out[i] = yes[i]
		} else {
			out[i] = no[i]
		}
	}
	return out, nil
}

func evalString(nd callNode, cols *colSet, env *Env, rows int) (Vector, error) {
	v, err := evalNode(nd.args[0], cols, env, rows)
	if err != nil {
		return nil, err
	}
	var arg string
	if len(nd.args) > 1 {
		arg, err = scalarString(nd.args[1], env)
		if err != nil {
			return nil, err
		}
	}
	out := make(Vector, len(v))
	for i, val := range v {
		if val.null {
			switch nd.fn {
			case "str_len":
				out[i] = NullValue(Int64)
			case "to_lower", "to_upper":
				out[i] = NullValue(String)
			default:
				out[i] = NullValue(Boolean)
			}
			continue
		}
		if !val.kind.IsTextual() {
			return nil, errTypeMismatch(nd.fn, val.kind, String)
		}
		switch nd.fn {
		case "str_len":
			out[i] = IntValue(int64(len([]rune(val.s))))
		case "to_lower":
			out[i] = StrValue(strings.ToLower(val.s))
		case "to_upper":
			out[i] = StrValue(strings.ToUpper(val.s))
		case "str_contains":
			out[i] = BoolValue(strings.Contains(val.s, arg))
		case "str_starts_with":
			out[i] = BoolValue(strings.HasPrefix(val.s, arg))
		case "str_ends_with":
			out[i] = BoolValue(strings.HasSuffix(val.s, arg))
		}
	}
	return out, nil
}
