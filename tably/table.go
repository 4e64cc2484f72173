package tably

import (
	"fmt"
	"strings"
)

// Column is a named vector. Columns are immutable once part of a table;
// verbs produce new tables rather than mutating in place.
type Column struct {
	name string
	data Vector
}

// NewColumn creates a column from a name and a vector.
func NewColumn(name string, data Vector) Column {
	return Column{name: name, data: data}
}

// IntColumn creates an integer column.
func IntColumn(name string, vals ...int64) Column {
	return Column{name: name, data: Ints(vals...)}
}

// FloatColumn creates a float column.
func FloatColumn(name string, vals ...float64) Column {
	return Column{name: name, data: Floats(vals...)}
}

// StrColumn creates a string column.
func StrColumn(name string, vals ...string) Column {
	return Column{name: name, data: Strs(vals...)}
}

// BoolColumn creates a boolean column.
func BoolColumn(name string, vals ...bool) Column {
	return Column{name: name, data: Bools(vals...)}
}

// FactorColumn creates a categorical column.
func FactorColumn(name string, labels ...string) Column {
	return Column{name: name, data: Factors(labels...)}
}

// Name returns the column's name.
func (c Column) Name() string { return c.name }

// Data returns the column's vector.
func (c Column) Data() Vector { return c.data }

// Kind returns the column's data type.
func (c Column) Kind() DataType { return c.data.kind() }

// Table is an ordered sequence of equal-length named columns, plus
// optional grouping metadata. Tables are immutable: every verb returns
// a new table and leaves its input untouched.
type Table struct {
	cols     []Column
	rows     int
	grouping *Grouping
}

// NewTable creates a table from columns. Column names must be unique
// and non-empty, and all columns must have the same length.
func NewTable(cols ...Column) (*Table, error) {
	t := &Table{cols: cols}
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if c.name == "" {
			return nil, errAmbiguous("", fmt.Sprintf("column %d has no name", i+1))
		}
		if seen[c.name] {
			return nil, errAmbiguous(c.name, "duplicate column name")
		}
		seen[c.name] = true
		if i == 0 {
			t.rows = len(c.data)
		} else if len(c.data) != t.rows {
			return nil, errRecycleLength(c.name, len(c.data), t.rows)
		}
	}
	return t, nil
}

// MustNewTable is NewTable that panics on error, for fixtures and tests.
func MustNewTable(cols ...Column) *Table {
	t, err := NewTable(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.cols) }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.cols {
		if c.name == name {
			return true
		}
	}
	return false
}

// Column returns the vector of the named column.
func (t *Table) Column(name string) (Vector, error) {
	for _, c := range t.cols {
		if c.name == name {
			return c.data, nil
		}
	}
	return nil, errUnknownColumn(name)
}

// ColumnAt returns the column at a 1-based position.
func (t *Table) ColumnAt(pos int) (Column, error) {
	if pos < 1 || pos > len(t.cols) {
		return Column{}, errOutOfRange(pos, len(t.cols))
	}
	return t.cols[pos-1], nil
}

// IsGrouped reports whether the table carries grouping metadata.
func (t *Table) IsGrouped() bool {
	return t.grouping != nil && len(t.grouping.keys) > 0
}

// GroupKeys returns the names of the grouping columns, outermost first.
func (t *Table) GroupKeys() []string {
	if t.grouping == nil {
		return nil
	}
	return append([]string(nil), t.grouping.keys...)
}

// withColumns derives a new table sharing t's grouping over a fresh
// column set. Callers are responsible for regrouping when row identity
// changed.
func (t *Table) withColumns(cols []Column, rows int) *Table {
	return &Table{cols: cols, rows: rows, grouping: t.grouping}
}

// subsetRows returns a new table with the rows at the given 0-based
// indices, in index order. Grouping metadata is recomputed by the caller.
func (t *Table) subsetRows(idx []int) *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = Column{name: c.name, data: c.data.take(idx)}
	}
	return &Table{cols: cols, rows: len(idx)}
}

// String renders the table for display: a shape line, grouping info if
// present, then the columns with type-annotated headers.
func (t *Table) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table: %d x %d\n", t.rows, len(t.cols))
	if t.IsGrouped() {
		fmt.Fprintf(&b, "groups: %s [%d]\n", strings.Join(t.grouping.keys, ", "), len(t.grouping.groups))
	}

	headers := make([]string, len(t.cols))
	widths := make([]int, len(t.cols))
	cells := make([][]string, len(t.cols))
	for j, c := range t.cols {
		headers[j] = fmt.Sprintf("%s <%s>", c.name, c.data.kind())
		widths[j] = len(headers[j])
		cells[j] = make([]string, t.rows)
		for i, v := range c.data {
			s := v.String()
			cells[j][i] = s
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
	}

	writeRow := func(vals []string) {
		for j, s := range vals {
			if j > 0 {
				b.WriteString("  ")
			}
			if j == len(vals)-1 {
				b.WriteString(s)
			} else {
				fmt.Fprintf(&b, "%-*s", widths[j], s)
			}
		}
		b.WriteString("\n")
	}
	writeRow(headers)
	row := make([]string, len(t.cols))
	for i := 0; i < t.rows; i++ {
		for j := range t.cols {
			row[j] = cells[j][i]
		}
		writeRow(row)
	}
	return b.String()
}
