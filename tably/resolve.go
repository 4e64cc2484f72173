package tably

import (
	"regexp"
	"strings"
)

// resolver maps identifiers and positions onto a table's column-name
// sequence. Positions are 1-based.
type resolver struct {
	names []string
}

// position resolves a column name to its ordinal position.
func (r resolver) position(name string) (int, error) {
	for i, n := range r.names {
		if n == name {
			return i + 1, nil
		}
	}
	return 0, errUnknownColumn(name)
}

// check validates a position against the column bounds.
func (r resolver) check(pos int) error {
	if pos < 1 || pos > len(r.names) {
		return errOutOfRange(pos, len(r.names))
	}
	return nil
}

// selection is an ordered set of resolved positions. negated marks an
// exclusion set (the complement is taken by the caller).
type selection struct {
	positions []int
	negated   bool
}

// evalSelecting resolves an expression sequence in selecting context:
// bare identifiers denote column positions and shadow the enclosing
// scope; whitelisted helper calls scan the name sequence; any other call
// is evaluated entirely in the enclosing scope, without the column
// namespace, and must yield a name or position.
//
// Expressions are combined left to right: inclusions append (duplicates
// keep their first slot, the last alias wins), exclusions remove. A
// leading exclusion starts from the full column set.
func evalSelecting(names []string, env *Env, exprs ...Expr) ([]int, map[int]string, error) {
	r := resolver{names: names}
	var result []int
	present := make(map[int]bool)
	aliases := make(map[int]string)

	for i, e := range exprs {
		sel, err := resolveSelection(e.n, r, env)
		if err != nil {
			return nil, nil, err
		}
		if sel.negated {
			if i == 0 {
				for p := 1; p <= len(names); p++ {
					result = append(result, p)
					present[p] = true
				}
			}
			drop := make(map[int]bool, len(sel.positions))
			for _, p := range sel.positions {
				drop[p] = true
			}
			kept := result[:0]
			for _, p := range result {
				if drop[p] {
					delete(present, p)
					continue
				}
				kept = append(kept, p)
			}
			result = kept
			continue
		}
		if e.label != "" && len(sel.positions) != 1 {
			return nil, nil, errAmbiguous(e.label, "alias requires a single-column selection")
		}
		for _, p := range sel.positions {
			if !present[p] {
				result = append(result, p)
				present[p] = true
			}
			if e.label != "" {
				aliases[p] = e.label
			}
		}
	}
	return result, aliases, nil
}

// resolveSelection resolves a single expression tree to a position set.
func resolveSelection(n node, r resolver, env *Env) (selection, error) {
	switch nd := n.(type) {
	case identNode:
		// Columns shadow the enclosing scope for bare names.
		if p, err := r.position(nd.name); err == nil {
			return selection{positions: []int{p}}, nil
		}
		v, ok := env.lookupOrNone(nd.name)
		if !ok {
			return selection{}, errUnknownColumn(nd.name)
		}
		return selectionFromVector(nd.name, v, r)

	case litNode:
		return selectionFromValue(nd.val, r)

	case callNode:
		return resolveSelectionCall(nd, r, env)
	}
	return selection{}, errAmbiguous("", "unsupported selection expression")
}

func resolveSelectionCall(nd callNode, r resolver, env *Env) (selection, error) {
	switch nd.fn {
	case "!":
		inner, err := resolveSelection(nd.args[0], r, env)
		if err != nil {
			return selection{}, err
		}
		inner.negated = !inner.negated
		return inner, nil

	case ":":
		from, err := resolveSingle(nd.args[0], r, env)
		if err != nil {
			return selection{}, err
		}
		to, err := resolveSingle(nd.args[1], r, env)
		if err != nil {
			return selection{}, err
		}
		return selection{positions: spanPositions(from, to)}, nil

	case "c":
		var out selection
		seenAny := false
		for _, arg := range nd.args {
			part, err := resolveSelection(arg, r, env)
			if err != nil {
				return selection{}, err
			}
			if seenAny && part.negated != out.negated {
				return selection{}, errAmbiguous("c", "cannot mix inclusions and exclusions in one concatenation")
			}
			out.negated = part.negated
			out.positions = append(out.positions, part.positions...)
			seenAny = true
		}
		return out, nil

	case "everything":
		all := make([]int, len(r.names))
		for i := range all {
			all[i] = i + 1
		}
		return selection{positions: all}, nil

	case "starts_with":
		return scanNames(nd, r, env, func(name, arg string) bool {
			return strings.HasPrefix(name, arg)
		})

	case "ends_with":
		return scanNames(nd, r, env, func(name, arg string) bool {
			return strings.HasSuffix(name, arg)
		})

	case "matches":
		arg, err := scalarString(nd.args[0], env)
		if err != nil {
			return selection{}, err
		}
		re, err := regexp.Compile(arg)
		if err != nil {
			return selection{}, errAmbiguous("matches", "invalid pattern: "+err.Error())
		}
		var sel selection
		for i, name := range r.names {
			if re.MatchString(name) {
				sel.positions = append(sel.positions, i+1)
			}
		}
		return sel, nil
	}

	// Any other call form is evaluated in the enclosing scope. The column
	// namespace is deliberately NOT injected, so helper arguments can
	// reference outer variables even when a column shares their name.
	v, err := evalNode(nd, nil, env, 1)
	if err != nil {
		return selection{}, err
	}
	if len(v) != 1 {
		return selection{}, errAmbiguous(nd.fn, "selection expression must yield a single name or position")
	}
	return selectionFromValue(v[0], r)
}

// resolveSingle resolves a range endpoint to exactly one position.
func resolveSingle(n node, r resolver, env *Env) (int, error) {
	sel, err := resolveSelection(n, r, env)
	if err != nil {
		return 0, err
	}
	if sel.negated || len(sel.positions) != 1 {
		return 0, errAmbiguous("", "range endpoint must resolve to a single position")
	}
	return sel.positions[0], nil
}

// spanPositions returns the inclusive interval between two positions,
// descending when from > to.
func spanPositions(from, to int) []int {
	var out []int
	if from <= to {
		for p := from; p <= to; p++ {
			out = append(out, p)
		}
	} else {
		for p := from; p >= to; p-- {
			out = append(out, p)
		}
	}
	return out
}

func scanNames(nd callNode, r resolver, env *Env, match func(name, arg string) bool) (selection, error) {
	arg, err := scalarString(nd.args[0], env)
	if err != nil {
		return selection{}, err
	}
	var sel selection
	for i, name := range r.names {
		if match(name, arg) {
			sel.positions = append(sel.positions, i+1)
		}
	}
	return sel, nil
}

// scalarString evaluates a helper argument in the enclosing scope only
// and requires a single string.
func scalarString(n node, env *Env) (string, error) {
	v, err := evalNode(n, nil, env, 1)
	if err != nil {
		return "", err
	}
	if len(v) != 1 || !v[0].kind.IsTextual() || v[0].null {
		return "", errAmbiguous("", "helper argument must be a single string")
	}
	return v[0].s, nil
}

func selectionFromValue(v Value, r resolver) (selection, error) {
	switch {
	case v.kind.IsTextual() && !v.null:
		p, err := r.position(v.s)
		if err != nil {
			return selection{}, err
		}
		return selection{positions: []int{p}}, nil
	case v.kind.Family() == FamilyInteger && !v.null:
		p := int(v.i)
		neg := false
		if p < 0 {
			p, neg = -p, true
		}
		if err := r.check(p); err != nil {
			return selection{}, err
		}
		return selection{positions: []int{p}, negated: neg}, nil
	}
	return selection{}, errAmbiguous("", "selection must yield a name or position")
}

func selectionFromVector(name string, v Vector, r resolver) (selection, error) {
	if len(v) == 0 {
		return selection{}, errAmbiguous(name, "empty selection binding")
	}
	var out selection
	seenAny := false
	for _, val := range v {
		part, err := selectionFromValue(val, r)
		if err != nil {
			return selection{}, err
		}
		if seenAny && part.negated != out.negated {
			return selection{}, errAmbiguous(name, "cannot mix inclusions and exclusions in one binding")
		}
		out.negated = part.negated
		out.positions = append(out.positions, part.positions...)
		seenAny = true
	}
	return out, nil
}

// lookupOrNone tolerates a nil environment.
func (e *Env) lookupOrNone(name string) (Vector, bool) {
	if e == nil {
		return nil, false
	}
	return e.Lookup(name)
}
