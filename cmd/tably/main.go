package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/tably-go/tably/logging"
	"github.com/tably-go/tably/tably"
)

type options struct {
	input    string
	filters  multiFlag
	groupBy  string
	count    bool
	sortBy   string
	desc     bool
	head     int
	distinct bool
	format   string
	logLevel string
	seqURL   string
}

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "input", "", "input CSV file (required)")
	flag.Var(&opts.filters, "filter", "predicate of the form col<op>value, e.g. 'month==1' (repeatable)")
	flag.StringVar(&opts.groupBy, "group-by", "", "comma-separated grouping columns")
	flag.BoolVar(&opts.count, "count", false, "tally rows per group into an 'n' column")
	flag.StringVar(&opts.sortBy, "sort", "", "column to sort by")
	flag.BoolVar(&opts.desc, "desc", false, "sort descending")
	flag.IntVar(&opts.head, "head", 0, "keep only the first n rows")
	flag.BoolVar(&opts.distinct, "distinct", false, "drop duplicate rows")
	flag.StringVar(&opts.format, "format", "table", "output format: table or csv")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&opts.seqURL, "seq", "", "Seq server URL for log shipping (optional)")
	flag.Parse()

	if opts.input == "" {
		fmt.Fprintln(os.Stderr, "usage: tably -input data.csv [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger, cleanup := logging.Setup(parseLevel(opts.logLevel), opts.seqURL)
	defer cleanup()

	if err := run(opts, logger); err != nil {
		logger.Error("run failed", slog.Any("error", err))
		cleanup()
		os.Exit(1)
	}
}

func run(opts options, logger *slog.Logger) error {
	t, err := tably.ReadCSV(opts.input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.input, err)
	}
	logger.Info("loaded table",
		slog.String("input", opts.input),
		slog.Int("rows", t.NumRows()),
		slog.Int("columns", t.NumColumns()))

	var stages []tably.Verb
	for _, f := range opts.filters {
		pred, err := parseFilter(f)
		if err != nil {
			return err
		}
		stages = append(stages, tably.Filter(pred))
	}
	if opts.distinct {
		stages = append(stages, tably.Distinct())
	}
	if opts.groupBy != "" {
		var keys []tably.Expr
		for _, name := range strings.Split(opts.groupBy, ",") {
			keys = append(keys, tably.Col(strings.TrimSpace(name)))
		}
		stages = append(stages, tably.GroupBy(keys...))
	}
	if opts.count {
		stages = append(stages, tably.Summarise(tably.N().Alias("n")))
	}
	if opts.sortBy != "" {
		key := tably.Col(opts.sortBy)
		if opts.desc {
			key = tably.Desc(key)
		}
		stages = append(stages, tably.Arrange(key))
	}
	if opts.head > 0 {
		stages = append(stages, tably.SliceHead(opts.head))
	}

	out, err := tably.NewPipeline(stages...).WithLogger(logger).Run(t)
	if err != nil {
		return err
	}

	switch opts.format {
	case "csv":
		return out.WriteCSV(os.Stdout)
	case "table":
		fmt.Print(out.String())
		return nil
	}
	return fmt.Errorf("unknown format %q", opts.format)
}

var filterOps = []string{"==", "!=", ">=", "<=", ">", "<"}

// parseFilter turns "col<op>value" into a predicate expression. The
// value is parsed as an int, float, or bool when possible, otherwise
// taken as a string.
func parseFilter(s string) (tably.Expr, error) {
	for _, op := range filterOps {
		at := strings.Index(s, op)
		if at <= 0 {
			continue
		}
		col := tably.Col(strings.TrimSpace(s[:at]))
		lit := parseLiteral(strings.TrimSpace(s[at+len(op):]))
		switch op {
		case "==":
			return col.Eq(lit), nil
		case "!=":
			return col.Ne(lit), nil
		case ">=":
			return col.Ge(lit), nil
		case "<=":
			return col.Le(lit), nil
		case ">":
			return col.Gt(lit), nil
		case "<":
			return col.Lt(lit), nil
		}
	}
	return tably.Expr{}, fmt.Errorf("cannot parse filter %q: expected col<op>value", s)
}

func parseLiteral(s string) tably.Expr {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return tably.Lit(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return tably.Lit(f)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return tably.Lit(b)
	}
	return tably.Lit(strings.Trim(s, `"'`))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
