package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tably-go/tably/tably"
)

// Inspects a CSV file: inferred column types, dimensions, and basic
// statistics for the numeric columns.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: schema_inspector <csv_file_path>")
	}
	path := os.Args[1]

	start := time.Now()
	t, err := tably.ReadCSV(path)
	if err != nil {
		log.Fatalf("Error reading CSV file: %v", err)
	}
	elapsed := time.Since(start)

	fmt.Printf("Inspecting %s (loaded in %v)\n", path, elapsed)
	fmt.Printf("Dimensions: %d rows x %d columns\n\n", t.NumRows(), t.NumColumns())

	fmt.Println("Inferred schema:")
	for i := 1; i <= t.NumColumns(); i++ {
		c, err := t.ColumnAt(i)
		if err != nil {
			log.Fatalf("Error reading column %d: %v", i, err)
		}
		fmt.Printf("  %-24s %s\n", c.Name(), c.Kind())
	}
	fmt.Println()

	preview, err := t.SliceHead(10)
	if err != nil {
		log.Fatalf("Error slicing preview: %v", err)
	}
	fmt.Println("Sample data (first 10 rows):")
	fmt.Println(preview.String())

	for i := 1; i <= t.NumColumns(); i++ {
		c, _ := t.ColumnAt(i)
		if !c.Kind().IsNumeric() {
			continue
		}
		col := tably.Col(c.Name())
		stats, err := t.Summarise(
			col.Min().Alias("min"),
			col.Max().Alias("max"),
			col.Mean().Alias("mean"),
			col.Median().Alias("median"),
			col.Count().Alias("present"),
		)
		if err != nil {
			log.Fatalf("Error summarising %s: %v", c.Name(), err)
		}
		fmt.Printf("Statistics for %s:\n", c.Name())
		fmt.Println(stats.String())
	}
}
