package tably

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupBy(t *testing.T) {
	tbl := sampleTable(t)

	t.Run("SingleKey", func(t *testing.T) {
		out, err := tbl.GroupBy(Col("department"))
		require.NoError(t, err)
		require.True(t, out.IsGrouped())
		require.Equal(t, []string{"department"}, out.GroupKeys())
		require.Equal(t, 3, out.grouping.NumGroups())
	})

	t.Run("FirstAppearanceOrder", func(t *testing.T) {
		out, err := tbl.GroupBy(Col("department"))
		require.NoError(t, err)
		groups := out.GroupRows()
		// Engineering appears first, then Marketing, then Sales.
		require.Equal(t, [][]int{{0, 2, 4}, {1, 5}, {3, 6}}, groups)
	})

	t.Run("DerivedKey", func(t *testing.T) {
		out, err := tbl.GroupBy(Col("age").Bin(20, 30, 40).Alias("bracket"))
		require.NoError(t, err)
		require.True(t, out.HasColumn("bracket"))
		require.Equal(t, []string{"bracket"}, out.GroupKeys())
		require.Equal(t, 2, out.grouping.NumGroups())
	})

	t.Run("MixedNumericKey", func(t *testing.T) {
		mixed, err := NewTable(
			NewColumn("x", Vector{IntValue(1), FloatValue(1), IntValue(2)}),
		)
		require.NoError(t, err)
		out, err := mixed.GroupBy(Col("x"))
		require.NoError(t, err)
		// Int 1 and float 1.0 compare equal, so they share a group.
		require.Equal(t, 2, out.grouping.NumGroups())
		require.Equal(t, [][]int{{0, 1}, {2}}, out.GroupRows())
	})

	t.Run("ReplacesExistingGrouping", func(t *testing.T) {
		byDept, err := tbl.GroupBy(Col("department"))
		require.NoError(t, err)
		byAge, err := byDept.GroupBy(Col("age"))
		require.NoError(t, err)
		require.Equal(t, []string{"age"}, byAge.GroupKeys())
	})

	t.Run("EveryRowInExactlyOneGroup", func(t *testing.T) {
		out, err := tbl.GroupBy(Col("department"))
		require.NoError(t, err)
		seen := make(map[int]int)
		for _, g := range out.GroupRows() {
			for _, row := range g {
				seen[row]++
			}
		}
		require.Len(t, seen, tbl.NumRows())
		for row, n := range seen {
			require.Equal(t, 1, n, "row %d", row)
		}
	})

	t.Run("Ungroup", func(t *testing.T) {
		out, err := tbl.GroupBy(Col("department"))
		require.NoError(t, err)
		require.False(t, out.Ungroup().IsGrouped())
	})
}

func TestSummarise(t *testing.T) {
	tbl := sampleTable(t)

	t.Run("Ungrouped", func(t *testing.T) {
		out, err := tbl.Summarise(
			Col("salary").Sum().Alias("total"),
			N().Alias("n"),
		)
		require.NoError(t, err)
		require.Equal(t, 1, out.NumRows())
		require.Equal(t, []string{"total", "n"}, out.Names())
		requireColumn(t, out, "total", Ints(410000))
		requireColumn(t, out, "n", Ints(7))
	})

	t.Run("Grouped", func(t *testing.T) {
		grouped, err := tbl.GroupBy(Col("department"))
		require.NoError(t, err)
		out, err := grouped.Summarise(
			Col("salary").Mean().Alias("avg"),
			N().Alias("n"),
		)
		require.NoError(t, err)
		require.Equal(t, 3, out.NumRows())
		require.Equal(t, []string{"department", "avg", "n"}, out.Names())
		requireColumn(t, out, "department", Strs("Engineering", "Marketing", "Sales"))
		requireColumn(t, out, "n", Ints(3, 2, 2))
		avg, err := out.Column("avg")
		require.NoError(t, err)
		require.InDelta(t, 61666.67, avg[0].Float(), 0.01)
		require.InDelta(t, 59000.0, avg[1].Float(), 0.01)
		require.InDelta(t, 53500.0, avg[2].Float(), 0.01)
	})

	t.Run("DropsLastGroupingLevel", func(t *testing.T) {
		grouped, err := tbl.GroupBy(Col("department"), Col("age"))
		require.NoError(t, err)
		out, err := grouped.Summarise(N().Alias("n"))
		require.NoError(t, err)
		require.Equal(t, []string{"department"}, out.GroupKeys())

		once, err := out.Summarise(Col("n").Sum().Alias("n"))
		require.NoError(t, err)
		require.Equal(t, 3, once.NumRows())
		require.False(t, once.IsGrouped())
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		_, err := tbl.Summarise(Col("salary").Alias("s"))
		require.True(t, IsKind(err, ErrSummariseLength))
	})

	t.Run("ComputedColumnVisibleToLaterExpressions", func(t *testing.T) {
		out, err := tbl.Summarise(
			Col("salary").Sum().Alias("total"),
			Col("total").Div(Lit(1000)).Alias("total_k"),
		)
		require.NoError(t, err)
		requireColumn(t, out, "total_k", Floats(410))
	})
}

// The calendar scenario: 365 daily rows grouped by month summarise to
// twelve rows, month first, then the tally.
func TestCalendarScenario(t *testing.T) {
	cal := calendarTable(t)

	grouped, err := cal.GroupBy(Col("month"))
	require.NoError(t, err)
	out, err := grouped.Summarise(N().Alias("n"))
	require.NoError(t, err)

	require.Equal(t, 12, out.NumRows())
	require.Equal(t, []string{"month", "n"}, out.Names())
	requireColumn(t, out, "month", Ints(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12))
	requireColumn(t, out, "n", Ints(31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31))
	require.False(t, out.IsGrouped())
}

func TestGroupedVerbs(t *testing.T) {
	tbl := sampleTable(t)
	grouped, err := tbl.GroupBy(Col("department"))
	require.NoError(t, err)

	t.Run("FilterPerGroup", func(t *testing.T) {
		// Keep each department's above-average earners.
		out, err := grouped.Filter(Col("salary").Gt(Col("salary").Mean()))
		require.NoError(t, err)
		requireColumn(t, out, "name", Strs("Charlie", "Eve", "Bob", "Diana"))
		require.True(t, out.IsGrouped())
	})

	t.Run("MutatePerGroup", func(t *testing.T) {
		out, err := grouped.Mutate(Col("salary").Sub(Col("salary").Mean()).Alias("delta"))
		require.NoError(t, err)
		delta, err := out.Column("delta")
		require.NoError(t, err)
		// Alice vs the Engineering mean of 61666.67.
		require.InDelta(t, -11666.67, delta[0].Float(), 0.01)
		// Bob vs the Marketing mean of 59000.
		require.InDelta(t, 1000.0, delta[1].Float(), 0.01)
	})

	t.Run("CountShorthand", func(t *testing.T) {
		out, err := tbl.Count(Col("department"))
		require.NoError(t, err)
		require.Equal(t, []string{"department", "n"}, out.Names())
		requireColumn(t, out, "n", Ints(3, 2, 2))
	})
}
