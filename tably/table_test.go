package tably

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleTable builds the shared staff fixture used across the verb tests.
func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(
		StrColumn("name", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace"),
		IntColumn("age", 25, 30, 35, 28, 32, 29, 27),
		IntColumn("salary", 50000, 60000, 70000, 55000, 65000, 58000, 52000),
		StrColumn("department", "Engineering", "Marketing", "Engineering", "Sales", "Engineering", "Marketing", "Sales"),
	)
	require.NoError(t, err)
	return tbl
}

// calendarTable builds one row per day of 2023: columns (year, month, day).
func calendarTable(t *testing.T) *Table {
	t.Helper()
	daysIn := []int64{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	var years, months, days []int64
	for m, n := range daysIn {
		for d := int64(1); d <= n; d++ {
			years = append(years, 2023)
			months = append(months, int64(m+1))
			days = append(days, d)
		}
	}
	tbl, err := NewTable(
		IntColumn("year", years...),
		IntColumn("month", months...),
		IntColumn("day", days...),
	)
	require.NoError(t, err)
	require.Equal(t, 365, tbl.NumRows())
	return tbl
}

// requireColumn asserts a column's values, comparing via Value.equal.
func requireColumn(t *testing.T, tbl *Table, name string, want Vector) {
	t.Helper()
	got, err := tbl.Column(name)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		require.True(t, want[i].equal(got[i]),
			"column %s row %d: got %s, want %s", name, i, got[i], want[i])
	}
}

func TestNewTable(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		tbl := sampleTable(t)
		require.Equal(t, 7, tbl.NumRows())
		require.Equal(t, 4, tbl.NumColumns())
		require.Equal(t, []string{"name", "age", "salary", "department"}, tbl.Names())
	})

	t.Run("DuplicateName", func(t *testing.T) {
		_, err := NewTable(IntColumn("x", 1), IntColumn("x", 2))
		require.Error(t, err)
		require.True(t, IsKind(err, ErrAmbiguousBinding))
	})

	t.Run("UnequalLengths", func(t *testing.T) {
		_, err := NewTable(IntColumn("x", 1, 2), IntColumn("y", 1))
		require.Error(t, err)
		require.True(t, IsKind(err, ErrRecycleLength))
	})

	t.Run("Empty", func(t *testing.T) {
		tbl, err := NewTable()
		require.NoError(t, err)
		require.Equal(t, 0, tbl.NumRows())
		require.Equal(t, 0, tbl.NumColumns())
	})
}

func TestTableAccessors(t *testing.T) {
	tbl := sampleTable(t)

	t.Run("Column", func(t *testing.T) {
		v, err := tbl.Column("age")
		require.NoError(t, err)
		require.Equal(t, []int64{25, 30, 35, 28, 32, 29, 27}, v.Int64s())

		_, err = tbl.Column("missing")
		require.True(t, IsKind(err, ErrUnknownColumn))
	})

	t.Run("ColumnAt", func(t *testing.T) {
		c, err := tbl.ColumnAt(2)
		require.NoError(t, err)
		require.Equal(t, "age", c.Name())
		require.Equal(t, Int64, c.Kind())

		_, err = tbl.ColumnAt(5)
		require.True(t, IsKind(err, ErrOutOfRange))
		_, err = tbl.ColumnAt(0)
		require.True(t, IsKind(err, ErrOutOfRange))
	})

	t.Run("HasColumn", func(t *testing.T) {
		require.True(t, tbl.HasColumn("salary"))
		require.False(t, tbl.HasColumn("bonus"))
	})
}

func TestTableString(t *testing.T) {
	tbl, err := NewTable(
		StrColumn("name", "Alice", "Bob"),
		IntColumn("age", 25, 30),
	)
	require.NoError(t, err)

	expected := `table: 2 x 2
name <str>  age <i64>
Alice       25
Bob         30
`
	require.Equal(t, expected, tbl.String())
}

func TestTableStringGrouped(t *testing.T) {
	tbl := sampleTable(t)
	grouped, err := tbl.GroupBy(Col("department"))
	require.NoError(t, err)
	require.Contains(t, grouped.String(), "groups: department [3]")
}

// Verbs never mutate their input.
func TestInputImmutability(t *testing.T) {
	tbl := sampleTable(t)
	before := tbl.String()

	_, err := tbl.Select(Col("name"))
	require.NoError(t, err)
	_, err = tbl.Mutate(Col("age").Add(Lit(1)).Alias("age"))
	require.NoError(t, err)
	_, err = tbl.Filter(Col("age").Gt(Lit(30)))
	require.NoError(t, err)
	_, err = tbl.Arrange(Desc(Col("salary")))
	require.NoError(t, err)

	require.Equal(t, before, tbl.String())
	require.Nil(t, tbl.grouping)
}
