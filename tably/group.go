package tably

import "strings"

// Grouping partitions a table's rows by the distinct combination of
// grouping-key values. Groups are ordered by first appearance of each
// distinct key tuple; within a group, row indices keep table order.
type Grouping struct {
	keys   []string
	groups [][]int
}

// NumGroups returns the number of distinct key tuples.
func (g *Grouping) NumGroups() int {
	if g == nil {
		return 0
	}
	return len(g.groups)
}

// partition computes first-appearance-ordered groups over the given key
// vectors.
func partition(rows int, keyVecs []Vector) [][]int {
	var groups [][]int
	slot := make(map[string]int)
	var sb strings.Builder
	for row := 0; row < rows; row++ {
		sb.Reset()
		for _, kv := range keyVecs {
			sb.WriteString(kv[row].key())
			sb.WriteByte('\x1f')
		}
		k := sb.String()
		at, ok := slot[k]
		if !ok {
			at = len(groups)
			slot[k] = at
			groups = append(groups, nil)
		}
		groups[at] = append(groups[at], row)
	}
	return groups
}

// GroupBy partitions the table by the given key expressions, replacing
// any existing grouping. Each argument is evaluated in mutating context:
// a bare column name groups by that column, while an aliased derived
// expression (e.g. a binned value) is materialized as a new column and
// used as a key. See GroupByWith for enclosing-scope bindings.
func (t *Table) GroupBy(exprs ...Expr) (*Table, error) {
	return t.GroupByWith(nil, exprs...)
}

// GroupByWith is GroupBy with explicit enclosing-scope bindings.
func (t *Table) GroupByWith(env *Env, exprs ...Expr) (*Table, error) {
	if len(exprs) == 0 {
		out := t.withColumns(t.cols, t.rows)
		out.grouping = nil
		return out, nil
	}

	cols := append([]Column(nil), t.cols...)
	cs := newColSet(t)
	keys := make([]string, 0, len(exprs))
	keyVecs := make([]Vector, 0, len(exprs))

	for _, e := range exprs {
		name := e.label
		if name == "" {
			id, ok := e.n.(identNode)
			if !ok {
				return nil, errAmbiguous(e.String(), "grouping expression needs a name")
			}
			name = id.name
		}
		v, err := evalNode(e.n, cs, env, t.rows)
		if err != nil {
			return nil, err
		}
		if len(v) != 1 && len(v) != t.rows {
			return nil, errRecycleLength(name, len(v), t.rows)
		}
		v = v.recycle(t.rows)
		cs.set(name, v)
		cols = upsertColumn(cols, Column{name: name, data: v})
		keys = append(keys, name)
		keyVecs = append(keyVecs, v)
	}

	out := &Table{cols: cols, rows: t.rows}
	out.grouping = &Grouping{keys: keys, groups: partition(t.rows, keyVecs)}
	return out, nil
}

// Ungroup drops all grouping metadata.
func (t *Table) Ungroup() *Table {
	return &Table{cols: t.cols, rows: t.rows}
}

// GroupRows returns the row-index partition, one slice per group in
// group-definition order. Ungrouped tables yield a single group spanning
// every row.
func (t *Table) GroupRows() [][]int {
	if t.IsGrouped() {
		out := make([][]int, len(t.grouping.groups))
		for i, g := range t.grouping.groups {
			out[i] = append([]int(nil), g...)
		}
		return out
	}
	all := make([]int, t.rows)
	for i := range all {
		all[i] = i
	}
	return [][]int{all}
}

// regroup recomputes the partition for the current grouping keys. Used
// after a verb changes row identity while keeping the keys intact.
func (t *Table) regroup() (*Table, error) {
	if t.grouping == nil || len(t.grouping.keys) == 0 {
		t.grouping = nil
		return t, nil
	}
	keyVecs := make([]Vector, len(t.grouping.keys))
	for i, name := range t.grouping.keys {
		v, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		keyVecs[i] = v
	}
	t.grouping = &Grouping{
		keys:   append([]string(nil), t.grouping.keys...),
		groups: partition(t.rows, keyVecs),
	}
	return t, nil
}

// mapGroups applies fn to each group's row indices independently and
// concatenates the selected indices back in group-definition order.
func (t *Table) mapGroups(fn func(rows []int) ([]int, error)) (*Table, error) {
	var keep []int
	for _, g := range t.GroupRows() {
		sel, err := fn(g)
		if err != nil {
			return nil, err
		}
		keep = append(keep, sel...)
	}
	out := t.subsetRows(keep)
	out.grouping = t.grouping
	return out.regroup()
}

// Summarise reduces each group to a single row. Each expression is
// evaluated per group in mutating context and must reduce to exactly one
// value; the result has the grouping columns first, then the computed
// columns, one row per group, with the last grouping level dropped.
// Ungrouped tables reduce to a single row. See SummariseWith for
// enclosing-scope bindings.
func (t *Table) Summarise(exprs ...Expr) (*Table, error) {
	return t.SummariseWith(nil, exprs...)
}

// SummariseWith is Summarise with explicit enclosing-scope bindings.
func (t *Table) SummariseWith(env *Env, exprs ...Expr) (*Table, error) {
	groups := t.GroupRows()
	keys := t.GroupKeys()

	outCols := make([]Column, 0, len(keys)+len(exprs))
	for _, k := range keys {
		outCols = append(outCols, Column{name: k, data: make(Vector, 0, len(groups))})
	}
	names := make([]string, len(exprs))
	for i, e := range exprs {
		if e.label == "" {
			names[i] = e.String()
		} else {
			names[i] = e.label
		}
		outCols = append(outCols, Column{name: names[i], data: make(Vector, 0, len(groups))})
	}

	for _, g := range groups {
		slice := t.subsetRows(g)
		cs := newColSet(slice)
		for ki, k := range keys {
			kv, err := slice.Column(k)
			if err != nil {
				return nil, err
			}
			outCols[ki].data = append(outCols[ki].data, kv[0])
		}
		for ei, e := range exprs {
			v, err := evalNode(e.n, cs, env, slice.rows)
			if err != nil {
				return nil, err
			}
			if len(v) != 1 {
				return nil, errSummariseLength(names[ei], len(v))
			}
			cs.set(names[ei], v)
			outCols[len(keys)+ei].data = append(outCols[len(keys)+ei].data, v[0])
		}
	}

	out, err := NewTable(outCols...)
	if err != nil {
		return nil, err
	}
	// The outermost result keeps all but the innermost grouping level.
	if len(keys) > 1 {
		out.grouping = &Grouping{keys: keys[:len(keys)-1]}
		return out.regroup()
	}
	return out, nil
}

// Count groups by the given expressions and tallies rows per group,
// adding an "n" column. With no arguments it counts all rows of each
// existing group (or the whole table).
func (t *Table) Count(exprs ...Expr) (*Table, error) {
	grouped := t
	if len(exprs) > 0 {
		var err error
		grouped, err = t.GroupBy(exprs...)
		if err != nil {
			return nil, err
		}
	}
	return grouped.Summarise(N().Alias("n"))
}

func upsertColumn(cols []Column, c Column) []Column {
	for i := range cols {
		if cols[i].name == c.name {
			cols[i] = c
			return cols
		}
	}
	return append(cols, c)
}
