package tably

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func tenRows(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(IntColumn("id", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
	require.NoError(t, err)
	return tbl
}

func TestSlice(t *testing.T) {
	tbl := tenRows(t)

	t.Run("Range", func(t *testing.T) {
		out, err := tbl.Slice(Seq(5, 10))
		require.NoError(t, err)
		requireColumn(t, out, "id", Ints(5, 6, 7, 8, 9, 10))
	})

	t.Run("Positions", func(t *testing.T) {
		out, err := tbl.Slice(Positions(3, 1, 7))
		require.NoError(t, err)
		requireColumn(t, out, "id", Ints(3, 1, 7))
	})

	t.Run("NegativeExclusion", func(t *testing.T) {
		out, err := tbl.Slice(Positions(-1, -10))
		require.NoError(t, err)
		requireColumn(t, out, "id", Ints(2, 3, 4, 5, 6, 7, 8, 9))
	})

	t.Run("OutOfRange", func(t *testing.T) {
		_, err := tbl.Slice(Positions(11))
		require.True(t, IsKind(err, ErrOutOfRange))
	})

	t.Run("PerGroup", func(t *testing.T) {
		tbl := sampleTable(t)
		grouped, err := tbl.GroupBy(Col("department"))
		require.NoError(t, err)
		out, err := grouped.Slice(Positions(1))
		require.NoError(t, err)
		requireColumn(t, out, "name", Strs("Alice", "Bob", "Diana"))
	})
}

func TestSliceHeadTail(t *testing.T) {
	tbl := tenRows(t)

	t.Run("Head", func(t *testing.T) {
		out, err := tbl.SliceHead(3)
		require.NoError(t, err)
		requireColumn(t, out, "id", Ints(1, 2, 3))
	})

	t.Run("Tail", func(t *testing.T) {
		out, err := tbl.SliceTail(3)
		require.NoError(t, err)
		requireColumn(t, out, "id", Ints(8, 9, 10))
	})

	t.Run("NLargerThanTable", func(t *testing.T) {
		out, err := tbl.SliceHead(100)
		require.NoError(t, err)
		require.Equal(t, 10, out.NumRows())
	})

	t.Run("ZeroKeepsNothing", func(t *testing.T) {
		head, err := tbl.SliceHead(0)
		require.NoError(t, err)
		require.Equal(t, 0, head.NumRows())
		require.Equal(t, tbl.Names(), head.Names())

		tail, err := tbl.SliceTail(0)
		require.NoError(t, err)
		require.Equal(t, 0, tail.NumRows())
	})

	t.Run("NegativeKeepsNothing", func(t *testing.T) {
		head, err := tbl.SliceHead(-1)
		require.NoError(t, err)
		require.Equal(t, 0, head.NumRows())

		tail, err := tbl.SliceTail(-1)
		require.NoError(t, err)
		require.Equal(t, 0, tail.NumRows())
	})

	t.Run("HeadPerGroup", func(t *testing.T) {
		tbl := sampleTable(t)
		grouped, err := tbl.GroupBy(Col("department"))
		require.NoError(t, err)
		out, err := grouped.SliceHead(2)
		require.NoError(t, err)
		requireColumn(t, out, "name",
			Strs("Alice", "Charlie", "Bob", "Frank", "Diana", "Grace"))
	})
}

func TestSliceMinMax(t *testing.T) {
	tbl, err := NewTable(
		StrColumn("name", "a", "b", "c", "d", "e"),
		IntColumn("score", 3, 1, 1, 2, 5),
	)
	require.NoError(t, err)

	t.Run("Min", func(t *testing.T) {
		out, err := tbl.SliceMin(Col("score"), 1)
		require.NoError(t, err)
		// Both rows tied at the minimum come back, in original order.
		requireColumn(t, out, "name", Strs("b", "c"))
	})

	t.Run("MinWithBoundaryTies", func(t *testing.T) {
		out, err := tbl.SliceMin(Col("score"), 3)
		require.NoError(t, err)
		requireColumn(t, out, "name", Strs("b", "c", "d"))
	})

	t.Run("Max", func(t *testing.T) {
		out, err := tbl.SliceMax(Col("score"), 2)
		require.NoError(t, err)
		requireColumn(t, out, "name", Strs("a", "e"))
	})

	t.Run("BooleanKey", func(t *testing.T) {
		flags, err := NewTable(
			StrColumn("name", "a", "b", "c"),
			BoolColumn("active", false, true, true),
		)
		require.NoError(t, err)

		max, err := flags.SliceMax(Col("active"), 1)
		require.NoError(t, err)
		requireColumn(t, max, "name", Strs("b", "c"))

		min, err := flags.SliceMin(Col("active"), 1)
		require.NoError(t, err)
		requireColumn(t, min, "name", Strs("a"))
	})

	t.Run("NCoversAll", func(t *testing.T) {
		out, err := tbl.SliceMin(Col("score"), 10)
		require.NoError(t, err)
		require.Equal(t, 5, out.NumRows())
	})

	t.Run("PerGroup", func(t *testing.T) {
		staff := sampleTable(t)
		grouped, err := staff.GroupBy(Col("department"))
		require.NoError(t, err)
		out, err := grouped.SliceMax(Col("salary"), 1)
		require.NoError(t, err)
		requireColumn(t, out, "name", Strs("Charlie", "Bob", "Diana"))
	})
}

func TestSliceSample(t *testing.T) {
	tbl := tenRows(t)

	t.Run("WithoutReplacement", func(t *testing.T) {
		out, err := tbl.SliceSample(SampleSpec{N: 4, Rand: rand.New(rand.NewSource(1))})
		require.NoError(t, err)
		require.Equal(t, 4, out.NumRows())
		ids, err := out.Column("id")
		require.NoError(t, err)
		seen := make(map[int64]bool)
		for _, v := range ids {
			require.False(t, seen[v.Int()], "duplicate draw without replacement")
			seen[v.Int()] = true
		}
	})

	t.Run("CappedAtGroupSize", func(t *testing.T) {
		out, err := tbl.SliceSample(SampleSpec{N: 50, Rand: rand.New(rand.NewSource(1))})
		require.NoError(t, err)
		require.Equal(t, 10, out.NumRows())
	})

	t.Run("WithReplacementCanExceedSize", func(t *testing.T) {
		out, err := tbl.SliceSample(SampleSpec{N: 25, Replace: true, Rand: rand.New(rand.NewSource(1))})
		require.NoError(t, err)
		require.Equal(t, 25, out.NumRows())
	})

	t.Run("Proportion", func(t *testing.T) {
		out, err := tbl.SliceSample(SampleSpec{Prop: 0.5, Rand: rand.New(rand.NewSource(1))})
		require.NoError(t, err)
		require.Equal(t, 5, out.NumRows())
	})

	t.Run("ZeroWeightNeverDrawn", func(t *testing.T) {
		weights := IfElse(Col("id").Le(Lit(5)), Lit(1.0), Lit(0.0))
		out, err := tbl.SliceSample(SampleSpec{
			N:       5,
			Weights: weights,
			Rand:    rand.New(rand.NewSource(7)),
		})
		require.NoError(t, err)
		require.Equal(t, 5, out.NumRows())
		ids, err := out.Column("id")
		require.NoError(t, err)
		for _, v := range ids {
			require.LessOrEqual(t, v.Int(), int64(5))
		}
	})

	t.Run("NegativeWeight", func(t *testing.T) {
		_, err := tbl.SliceSample(SampleSpec{N: 1, Weights: Lit(-1.0)})
		require.True(t, IsKind(err, ErrAmbiguousBinding))
	})

	t.Run("PerGroup", func(t *testing.T) {
		staff := sampleTable(t)
		grouped, err := staff.GroupBy(Col("department"))
		require.NoError(t, err)
		out, err := grouped.SliceSample(SampleSpec{N: 1, Rand: rand.New(rand.NewSource(1))})
		require.NoError(t, err)
		require.Equal(t, 3, out.NumRows())
	})
}
