package benchmarks

import (
	"testing"

	"github.com/tably-go/tably/tably"
)

// Benchmark scenarios covering the common verb shapes: row filtering,
// grouped aggregation, sorting, and a composed pipeline.

func buildTable(b *testing.B, rows int) *tably.Table {
	b.Helper()
	ids := make([]int64, rows)
	vals := make([]float64, rows)
	groups := make([]string, rows)
	labels := []string{"north", "south", "east", "west"}
	for i := 0; i < rows; i++ {
		ids[i] = int64(i)
		vals[i] = float64(i%997) * 1.5
		groups[i] = labels[i%len(labels)]
	}
	t, err := tably.NewTable(
		tably.IntColumn("id", ids...),
		tably.FloatColumn("value", vals...),
		tably.StrColumn("region", groups...),
	)
	if err != nil {
		b.Fatal(err)
	}
	return t
}

func BenchmarkVerbs(b *testing.B) {
	t := buildTable(b, 10_000)

	b.Run("Filter", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, err := t.Filter(tably.Col("value").Gt(tably.Lit(500.0)))
			if err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Mutate", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, err := t.Mutate(tably.Col("value").Mul(tably.Lit(2.0)).Alias("doubled"))
			if err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Arrange", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, err := t.Arrange(tably.Desc(tably.Col("value")), tably.Col("id"))
			if err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("GroupedSummarise", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			g, err := t.GroupBy(tably.Col("region"))
			if err != nil {
				b.Fatal(err)
			}
			_, err = g.Summarise(
				tably.Col("value").Mean().Alias("avg"),
				tably.N().Alias("n"),
			)
			if err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ComposedPipeline", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, err := tably.Pipe(t,
				tably.Filter(tably.Col("value").Gt(tably.Lit(100.0))),
				tably.GroupBy(tably.Col("region")),
				tably.Summarise(tably.Col("value").Sum().Alias("total")),
				tably.Arrange(tably.Desc(tably.Col("total"))),
			)
			if err != nil {
				b.Fatal(err)
			}
		}
	})
}
