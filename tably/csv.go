package tably

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadCSV loads a table from a CSV file. The first record is the
// header; column types are inferred from the data.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads CSV from r and infers a column type for each field:
// integer, then float, then boolean, falling back to string. Empty
// fields and "NA" are parsed as missing values.
func ParseCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return NewTable()
	}
	header := records[0]
	raw := make([][]string, len(header))
	for _, rec := range records[1:] {
		for j := range header {
			raw[j] = append(raw[j], rec[j])
		}
	}

	cols := make([]Column, len(header))
	for j, name := range header {
		cols[j] = Column{name: name, data: inferVector(raw[j])}
	}
	return NewTable(cols...)
}

func isMissing(s string) bool {
	return s == "" || s == "NA"
}

// inferVector picks the narrowest type every non-missing field parses
// as, in the order int, float, bool, string.
func inferVector(fields []string) Vector {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, s := range fields {
		if isMissing(s) {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			isFloat = false
		}
		if _, err := strconv.ParseBool(strings.ToLower(s)); err != nil {
			isBool = false
		}
	}

	out := make(Vector, len(fields))
	for i, s := range fields {
		switch {
		case isMissing(s):
			switch {
			case !seen:
				out[i] = NullValue(String)
			case isInt:
				out[i] = NullValue(Int64)
			case isFloat:
				out[i] = NullValue(Float64)
			case isBool:
				out[i] = NullValue(Boolean)
			default:
				out[i] = NullValue(String)
			}
		case isInt:
			n, _ := strconv.ParseInt(s, 10, 64)
			out[i] = IntValue(n)
		case isFloat:
			f, _ := strconv.ParseFloat(s, 64)
			out[i] = FloatValue(f)
		case isBool:
			b, _ := strconv.ParseBool(strings.ToLower(s))
			out[i] = BoolValue(b)
		default:
			out[i] = StrValue(s)
		}
	}
	return out
}

// WriteCSV writes the table to w with a header row. Missing values are
// written as empty fields.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}
	rec := make([]string, len(t.cols))
	for i := 0; i < t.rows; i++ {
		for j, c := range t.cols {
			if c.data[i].null {
				rec[j] = ""
			} else {
				rec[j] = c.data[i].String()
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToCsv renders the table as a CSV string.
func (t *Table) ToCsv() (string, error) {
	var sb strings.Builder
	if err := t.WriteCSV(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
