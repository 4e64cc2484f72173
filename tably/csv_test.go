package tably

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV("../testdata/sample.csv")
	require.NoError(t, err)
	require.Equal(t, 7, tbl.NumRows())
	require.Equal(t, []string{"name", "age", "salary", "department"}, tbl.Names())

	age, err := tbl.Column("age")
	require.NoError(t, err)
	require.Equal(t, Int64, age.kind())
	require.Equal(t, []int64{25, 30, 35, 28, 32, 29, 27}, age.Int64s())
}

func TestParseCSV(t *testing.T) {
	t.Run("TypeInference", func(t *testing.T) {
		in := "id,ratio,active,label\n1,0.5,true,alpha\n2,1.25,false,beta\n"
		tbl, err := ParseCSV(strings.NewReader(in))
		require.NoError(t, err)

		id, _ := tbl.Column("id")
		require.Equal(t, Int64, id.kind())
		ratio, _ := tbl.Column("ratio")
		require.Equal(t, Float64, ratio.kind())
		active, _ := tbl.Column("active")
		require.Equal(t, Boolean, active.kind())
		label, _ := tbl.Column("label")
		require.Equal(t, String, label.kind())
	})

	t.Run("MixedIntFloatPromotes", func(t *testing.T) {
		in := "x\n1\n2.5\n"
		tbl, err := ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		x, _ := tbl.Column("x")
		require.Equal(t, Float64, x.kind())
		require.Equal(t, []float64{1, 2.5}, x.Float64s())
	})

	t.Run("MissingValues", func(t *testing.T) {
		in := "x,y\n1,a\n,NA\n3,c\n"
		tbl, err := ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		x, _ := tbl.Column("x")
		require.True(t, x[1].IsNull())
		require.Equal(t, Int64, x.kind())
		y, _ := tbl.Column("y")
		require.True(t, y[1].IsNull())
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		tbl, err := ParseCSV(strings.NewReader("a,b\n"))
		require.NoError(t, err)
		require.Equal(t, 0, tbl.NumRows())
		require.Equal(t, []string{"a", "b"}, tbl.Names())
	})

	t.Run("Empty", func(t *testing.T) {
		tbl, err := ParseCSV(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, 0, tbl.NumColumns())
	})
}

func TestWriteCSV(t *testing.T) {
	tbl, err := NewTable(
		StrColumn("name", "Alice", "Bob"),
		NewColumn("score", Vector{IntValue(10), NullValue(Int64)}),
	)
	require.NoError(t, err)

	out, err := tbl.ToCsv()
	require.NoError(t, err)
	require.Equal(t, "name,score\nAlice,10\nBob,\n", out)
}

func TestCSVRoundTrip(t *testing.T) {
	orig := sampleTable(t)
	text, err := orig.ToCsv()
	require.NoError(t, err)
	back, err := ParseCSV(strings.NewReader(text))
	require.NoError(t, err)
	require.Equal(t, orig.String(), back.String())
}
