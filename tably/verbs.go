package tably

// Filter keeps the rows for which every predicate evaluates to true.
// Predicates are evaluated in mutating context, per group when grouped;
// missing predicate values never keep a row. See FilterWith for
// enclosing-scope bindings.
func (t *Table) Filter(preds ...Expr) (*Table, error) {
	return t.FilterWith(nil, preds...)
}

// FilterWith is Filter with explicit enclosing-scope bindings.
func (t *Table) FilterWith(env *Env, preds ...Expr) (*Table, error) {
	return t.mapGroups(func(rows []int) ([]int, error) {
		slice := t.subsetRows(rows)
		cs := newColSet(slice)
		keep := make([]bool, len(rows))
		for i := range keep {
			keep[i] = true
		}
		for _, p := range preds {
			v, err := evalNode(p.n, cs, env, len(rows))
			if err != nil {
				return nil, err
			}
			if len(v) != 1 && len(v) != len(rows) {
				return nil, errRecycleLength(p.String(), len(v), len(rows))
			}
			v = v.recycle(len(rows))
			for i, val := range v {
				if val.null {
					keep[i] = false
					continue
				}
				if val.kind.Family() != FamilyBoolean {
					return nil, errTypeMismatch("filter", val.kind, Boolean)
				}
				keep[i] = keep[i] && val.b
			}
		}
		var out []int
		for i, k := range keep {
			if k {
				out = append(out, rows[i])
			}
		}
		return out, nil
	})
}

// Arrange sorts rows by the given keys, stably: ties on the first key
// are broken by subsequent keys, and rows equal on every key keep their
// original relative order. Wrap a key in Desc to sort it descending.
// Grouping metadata is recomputed but does not constrain the ordering;
// use ArrangeByGroup to sort within groups.
func (t *Table) Arrange(keys ...Expr) (*Table, error) {
	return t.arrange(nil, false, keys...)
}

// ArrangeWith is Arrange with explicit enclosing-scope bindings.
func (t *Table) ArrangeWith(env *Env, keys ...Expr) (*Table, error) {
	return t.arrange(env, false, keys...)
}

// ArrangeByGroup sorts with the grouping columns prepended as the
// primary ascending keys, so each group's rows end up contiguous.
func (t *Table) ArrangeByGroup(keys ...Expr) (*Table, error) {
	return t.arrange(nil, true, keys...)
}

func (t *Table) arrange(env *Env, byGroup bool, keys ...Expr) (*Table, error) {
	cs := newColSet(t)
	var sks []sortKey
	if byGroup {
		for _, name := range t.GroupKeys() {
			v, err := t.Column(name)
			if err != nil {
				return nil, err
			}
			sks = append(sks, sortKey{values: v})
		}
	}
	for _, k := range keys {
		bare, desc := splitOrdering(k)
		v, err := evalNode(bare.n, cs, env, t.rows)
		if err != nil {
			return nil, err
		}
		if len(v) != 1 && len(v) != t.rows {
			return nil, errRecycleLength(bare.String(), len(v), t.rows)
		}
		sks = append(sks, sortKey{values: v.recycle(t.rows), descending: desc})
	}
	idx, err := orderBy(t.rows, sks)
	if err != nil {
		return nil, err
	}
	out := t.subsetRows(idx)
	out.grouping = t.grouping
	return out.regroup()
}

// Select returns a table containing only the resolved columns, in the
// order the expressions give them. Bare names resolve against the
// table's columns first; grouping columns are always retained, prepended
// when not named. An alias on a single-column selection renames it.
// See SelectWith for enclosing-scope bindings.
func (t *Table) Select(exprs ...Expr) (*Table, error) {
	return t.SelectWith(nil, exprs...)
}

// SelectWith is Select with explicit enclosing-scope bindings.
func (t *Table) SelectWith(env *Env, exprs ...Expr) (*Table, error) {
	positions, aliases, err := evalSelecting(t.Names(), env, exprs...)
	if err != nil {
		return nil, err
	}
	return t.applySelection(positions, aliases)
}

func (t *Table) applySelection(positions []int, aliases map[int]string) (*Table, error) {
	names := t.Names()
	r := resolver{names: names}

	// Grouping columns survive selection even when unnamed.
	chosen := make(map[int]bool, len(positions))
	for _, p := range positions {
		chosen[p] = true
	}
	var final []int
	for _, k := range t.GroupKeys() {
		p, err := r.position(k)
		if err != nil {
			return nil, err
		}
		if !chosen[p] {
			final = append(final, p)
		}
	}
	final = append(final, positions...)

	cols := make([]Column, len(final))
	rename := make(map[string]string)
	for i, p := range final {
		c := t.cols[p-1]
		if alias, ok := aliases[p]; ok && alias != "" {
			rename[c.name] = alias
			c = Column{name: alias, data: c.data}
		}
		cols[i] = c
	}
	out, err := NewTable(cols...)
	if err != nil {
		return nil, err
	}
	if t.IsGrouped() {
		keys := make([]string, len(t.grouping.keys))
		for i, k := range t.grouping.keys {
			if nk, ok := rename[k]; ok {
				k = nk
			}
			keys[i] = k
		}
		out.grouping = &Grouping{
			keys:   keys,
			groups: t.grouping.groups,
		}
	}
	return out, nil
}

// Rename renames columns in place: each argument must be an aliased
// single-column selection (Col("old").As("new")). All columns are kept
// in their original order.
func (t *Table) Rename(exprs ...Expr) (*Table, error) {
	return t.RenameWith(nil, exprs...)
}

// RenameWith is Rename with explicit enclosing-scope bindings.
func (t *Table) RenameWith(env *Env, exprs ...Expr) (*Table, error) {
	names := t.Names()
	mapping := make(map[int]string)
	for _, e := range exprs {
		if e.label == "" {
			return nil, errAmbiguous(e.String(), "rename requires an alias")
		}
		positions, _, err := evalSelecting(names, env, Expr{n: e.n})
		if err != nil {
			return nil, err
		}
		if len(positions) != 1 {
			return nil, errAmbiguous(e.label, "rename target must resolve to a single column")
		}
		mapping[positions[0]] = e.label
	}

	cols := make([]Column, len(t.cols))
	rename := make(map[string]string)
	for i, c := range t.cols {
		if nn, ok := mapping[i+1]; ok {
			rename[c.name] = nn
			c = Column{name: nn, data: c.data}
		}
		cols[i] = c
	}
	out, err := NewTable(cols...)
	if err != nil {
		return nil, err
	}
	if t.IsGrouped() {
		keys := make([]string, len(t.grouping.keys))
		for i, k := range t.grouping.keys {
			if nk, ok := rename[k]; ok {
				k = nk
			}
			keys[i] = k
		}
		out.grouping = &Grouping{keys: keys, groups: t.grouping.groups}
	}
	return out, nil
}

// Anchor designates where Relocate moves the selected columns: before
// or after a target column, or the start of the table by default.
type Anchor struct {
	n     node
	after bool
	set   bool
}

// AtStart anchors the move at the first column position.
func AtStart() Anchor { return Anchor{} }

// Before anchors the move immediately before the target column.
func Before(target Expr) Anchor { return Anchor{n: target.n, set: true} }

// After anchors the move immediately after the target column.
func After(target Expr) Anchor { return Anchor{n: target.n, after: true, set: true} }

// Relocate moves the selected columns to the anchor position, keeping
// their relative order and leaving the remaining columns in place.
func (t *Table) Relocate(anchor Anchor, exprs ...Expr) (*Table, error) {
	return t.RelocateWith(nil, anchor, exprs...)
}

// RelocateWith is Relocate with explicit enclosing-scope bindings.
func (t *Table) RelocateWith(env *Env, anchor Anchor, exprs ...Expr) (*Table, error) {
	names := t.Names()
	positions, _, err := evalSelecting(names, env, exprs...)
	if err != nil {
		return nil, err
	}
	moving := make(map[int]bool, len(positions))
	for _, p := range positions {
		moving[p] = true
	}

	var stays []int
	for p := 1; p <= len(names); p++ {
		if !moving[p] {
			stays = append(stays, p)
		}
	}

	// The insertion point is an index into the non-moving sequence.
	at := 0
	if anchor.set {
		p, err := resolveSingle(anchor.n, resolver{names: names}, env)
		if err != nil {
			return nil, err
		}
		if moving[p] {
			return nil, errAmbiguous(names[p-1], "anchor column cannot be part of the moved selection")
		}
		for i, sp := range stays {
			if sp == p {
				at = i
				if anchor.after {
					at = i + 1
				}
				break
			}
		}
	}

	order := make([]int, 0, len(names))
	order = append(order, stays[:at]...)
	order = append(order, positions...)
	order = append(order, stays[at:]...)

	cols := make([]Column, len(order))
	for i, p := range order {
		cols[i] = t.cols[p-1]
	}
	out := &Table{cols: cols, rows: t.rows, grouping: t.grouping}
	return out, nil
}

// Mutate evaluates each argument in mutating context and appends the
// result as a column, overwriting a same-named column in place. Results
// of length one are recycled to the row count; each computed column is
// visible to the arguments that follow it. See MutateWith for
// enclosing-scope bindings.
func (t *Table) Mutate(exprs ...Expr) (*Table, error) {
	return t.MutateWith(nil, exprs...)
}

// MutateWith is Mutate with explicit enclosing-scope bindings.
func (t *Table) MutateWith(env *Env, exprs ...Expr) (*Table, error) {
	cols, _, err := t.mutateColumns(env, exprs)
	if err != nil {
		return nil, err
	}
	out := &Table{cols: cols, rows: t.rows, grouping: t.grouping}
	return out.regroup()
}

// Transmute performs the same evaluation as Mutate but keeps only the
// grouping columns and the computed columns.
func (t *Table) Transmute(exprs ...Expr) (*Table, error) {
	return t.TransmuteWith(nil, exprs...)
}

// TransmuteWith is Transmute with explicit enclosing-scope bindings.
func (t *Table) TransmuteWith(env *Env, exprs ...Expr) (*Table, error) {
	cols, computed, err := t.mutateColumns(env, exprs)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Column, len(cols))
	for _, c := range cols {
		byName[c.name] = c
	}
	var keep []Column
	seen := make(map[string]bool)
	for _, k := range t.GroupKeys() {
		if !seen[k] {
			keep = append(keep, byName[k])
			seen[k] = true
		}
	}
	for _, name := range computed {
		if !seen[name] {
			keep = append(keep, byName[name])
			seen[name] = true
		}
	}
	out := &Table{cols: keep, rows: t.rows, grouping: t.grouping}
	return out.regroup()
}

// mutateColumns evaluates mutation expressions per group and assembles
// the full column set plus the computed column names in order.
func (t *Table) mutateColumns(env *Env, exprs []Expr) ([]Column, []string, error) {
	names := make([]string, len(exprs))
	for i, e := range exprs {
		if e.label != "" {
			names[i] = e.label
		} else if id, ok := e.n.(identNode); ok {
			names[i] = id.name
		} else {
			names[i] = e.String()
		}
	}

	groups := t.GroupRows()
	results := make([]Vector, len(exprs))
	for i := range results {
		results[i] = make(Vector, t.rows)
	}

	for _, g := range groups {
		slice := t.subsetRows(g)
		cs := newColSet(slice)
		for i, e := range exprs {
			v, err := evalNode(e.n, cs, env, slice.rows)
			if err != nil {
				return nil, nil, err
			}
			if len(v) != 1 && len(v) != slice.rows {
				return nil, nil, errRecycleLength(names[i], len(v), slice.rows)
			}
			v = v.recycle(slice.rows)
			cs.set(names[i], v)
			for j, row := range g {
				results[i][row] = v[j]
			}
		}
	}

	cols := append([]Column(nil), t.cols...)
	for i, name := range names {
		cols = upsertColumn(cols, Column{name: name, data: results[i]})
	}
	return cols, names, nil
}

// Distinct keeps the first row of each distinct key combination. With
// no arguments every column is a key; otherwise each argument is
// evaluated like a grouping expression. All columns are retained.
func (t *Table) Distinct(exprs ...Expr) (*Table, error) {
	keyed := t
	if len(exprs) > 0 {
		var err error
		keyed, err = t.GroupByWith(nil, exprs...)
		if err != nil {
			return nil, err
		}
	} else {
		keyVecs := make([]Vector, len(t.cols))
		for i, c := range t.cols {
			keyVecs[i] = c.data
		}
		keyed = &Table{cols: t.cols, rows: t.rows,
			grouping: &Grouping{groups: partition(t.rows, keyVecs)}}
	}
	var first []int
	for _, g := range keyed.grouping.groups {
		first = append(first, g[0])
	}
	out := keyed.subsetRows(first)
	// Columns materialized for derived keys are kept; the original
	// grouping carries over.
	out.grouping = t.grouping
	return out.regroup()
}

// Pull extracts a single column as a vector. The expression is resolved
// in selecting context and must yield exactly one column.
func (t *Table) Pull(e Expr) (Vector, error) {
	return t.PullWith(nil, e)
}

// PullWith is Pull with explicit enclosing-scope bindings.
func (t *Table) PullWith(env *Env, e Expr) (Vector, error) {
	positions, _, err := evalSelecting(t.Names(), env, e)
	if err != nil {
		return nil, err
	}
	if len(positions) != 1 {
		return nil, errAmbiguous(e.String(), "pull requires a single-column selection")
	}
	return t.cols[positions[0]-1].data, nil
}
