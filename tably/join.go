package tably

import "strings"

// JoinSpec names the key columns a join matches on. On("k") matches
// equally named columns; Left/Right override the key names per side.
type JoinSpec struct {
	leftOn  []string
	rightOn []string
}

// On creates a join spec matching the given columns on both sides.
func On(cols ...string) JoinSpec {
	return JoinSpec{leftOn: cols, rightOn: cols}
}

// Left overrides the key column names on the left side.
func (s JoinSpec) Left(cols ...string) JoinSpec {
	s.leftOn = cols
	return s
}

// Right overrides the key column names on the right side.
func (s JoinSpec) Right(cols ...string) JoinSpec {
	s.rightOn = cols
	return s
}

// InnerJoin keeps the rows of t that match a row in other, one output
// row per matching pair, with other's non-key columns appended. A "_y"
// suffix disambiguates colliding column names.
func (t *Table) InnerJoin(other *Table, spec JoinSpec) (*Table, error) {
	return t.join(other, spec, false)
}

// LeftJoin keeps every row of t; rows without a match carry nulls in
// the columns taken from other.
func (t *Table) LeftJoin(other *Table, spec JoinSpec) (*Table, error) {
	return t.join(other, spec, true)
}

// SemiJoin keeps the rows of t that have at least one match in other,
// without duplicating rows or adding columns.
func (t *Table) SemiJoin(other *Table, spec JoinSpec) (*Table, error) {
	return t.filterByMatch(other, spec, true)
}

// AntiJoin keeps the rows of t that have no match in other.
func (t *Table) AntiJoin(other *Table, spec JoinSpec) (*Table, error) {
	return t.filterByMatch(other, spec, false)
}

func (s JoinSpec) validate() error {
	if len(s.leftOn) == 0 || len(s.leftOn) != len(s.rightOn) {
		return errAmbiguous("join", "join keys must name the same number of columns on both sides")
	}
	return nil
}

// keyIndex hashes a table's rows by their key tuple.
func keyIndex(t *Table, on []string) (map[string][]int, []Vector, error) {
	vecs := make([]Vector, len(on))
	for i, name := range on {
		v, err := t.Column(name)
		if err != nil {
			return nil, nil, err
		}
		vecs[i] = v
	}
	idx := make(map[string][]int, t.rows)
	var sb strings.Builder
	for row := 0; row < t.rows; row++ {
		sb.Reset()
		for _, kv := range vecs {
			sb.WriteString(kv[row].key())
			sb.WriteByte('\x1f')
		}
		k := sb.String()
		idx[k] = append(idx[k], row)
	}
	return idx, vecs, nil
}

func rowKey(vecs []Vector, row int) string {
	var sb strings.Builder
	for _, kv := range vecs {
		sb.WriteString(kv[row].key())
		sb.WriteByte('\x1f')
	}
	return sb.String()
}

func (t *Table) join(other *Table, spec JoinSpec, keepUnmatched bool) (*Table, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	rightIdx, _, err := keyIndex(other, spec.rightOn)
	if err != nil {
		return nil, err
	}
	leftVecs := make([]Vector, len(spec.leftOn))
	for i, name := range spec.leftOn {
		v, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		leftVecs[i] = v
	}

	rightKey := make(map[string]bool, len(spec.rightOn))
	for _, k := range spec.rightOn {
		rightKey[k] = true
	}
	var rightCols []Column
	for _, c := range other.cols {
		if !rightKey[c.name] {
			rightCols = append(rightCols, c)
		}
	}

	var leftRows []int
	var rightRows []int // -1 marks an unmatched left row
	for row := 0; row < t.rows; row++ {
		matches := rightIdx[rowKey(leftVecs, row)]
		if len(matches) == 0 {
			if keepUnmatched {
				leftRows = append(leftRows, row)
				rightRows = append(rightRows, -1)
			}
			continue
		}
		for _, m := range matches {
			leftRows = append(leftRows, row)
			rightRows = append(rightRows, m)
		}
	}

	out := t.subsetRows(leftRows)
	taken := make(map[string]bool, len(out.cols))
	for _, c := range out.cols {
		taken[c.name] = true
	}
	for _, rc := range rightCols {
		name := rc.name
		if taken[name] {
			name += "_y"
		}
		kind := rc.data.kind()
		data := make(Vector, len(rightRows))
		for i, m := range rightRows {
			if m < 0 {
				data[i] = NullValue(kind)
			} else {
				data[i] = rc.data[m]
			}
		}
		out.cols = append(out.cols, Column{name: name, data: data})
		taken[name] = true
	}
	out.grouping = t.grouping
	return out.regroup()
}

func (t *Table) filterByMatch(other *Table, spec JoinSpec, wantMatch bool) (*Table, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	rightIdx, _, err := keyIndex(other, spec.rightOn)
	if err != nil {
		return nil, err
	}
	leftVecs := make([]Vector, len(spec.leftOn))
	for i, name := range spec.leftOn {
		v, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		leftVecs[i] = v
	}
	var keep []int
	for row := 0; row < t.rows; row++ {
		_, matched := rightIdx[rowKey(leftVecs, row)]
		if matched == wantMatch {
			keep = append(keep, row)
		}
	}
	out := t.subsetRows(keep)
	out.grouping = t.grouping
	return out.regroup()
}
