package tably

import "math/rand"

// Seq builds an inclusive integer range expression for row slicing,
// e.g. Seq(5, 10) selects rows 5 through 10.
func Seq(from, to int) Expr {
	return ColRange(Lit(from), Lit(to))
}

// Slice keeps the rows at the given 1-based positions, per group when
// grouped. Negative positions exclude rows; inclusions and exclusions
// cannot be mixed. Positions out of range fail with an OutOfRange error.
func (t *Table) Slice(exprs ...Expr) (*Table, error) {
	return t.SliceWith(nil, exprs...)
}

// SliceWith is Slice with explicit enclosing-scope bindings.
func (t *Table) SliceWith(env *Env, exprs ...Expr) (*Table, error) {
	return t.mapGroups(func(rows []int) ([]int, error) {
		picks, err := evalRowSelection(len(rows), env, exprs...)
		if err != nil {
			return nil, err
		}
		out := make([]int, len(picks))
		for i, p := range picks {
			out[i] = rows[p-1]
		}
		return out, nil
	})
}

// evalRowSelection resolves row-position expressions against a row
// count, reusing the column-selection combinator with synthetic
// positional names so ranges, concatenation, and negative exclusion all
// apply to rows.
func evalRowSelection(rows int, env *Env, exprs ...Expr) ([]int, error) {
	r := resolver{names: make([]string, rows)}
	var result []int
	present := make(map[int]bool)
	for i, e := range exprs {
		sel, err := resolveSelection(e.n, r, env)
		if err != nil {
			return nil, err
		}
		if sel.negated {
			if i == 0 {
				for p := 1; p <= rows; p++ {
					result = append(result, p)
					present[p] = true
				}
			}
			drop := make(map[int]bool, len(sel.positions))
			for _, p := range sel.positions {
				drop[p] = true
			}
			kept := result[:0]
			for _, p := range result {
				if drop[p] {
					delete(present, p)
					continue
				}
				kept = append(kept, p)
			}
			result = kept
			continue
		}
		for _, p := range sel.positions {
			if !present[p] {
				result = append(result, p)
				present[p] = true
			}
		}
	}
	return result, nil
}

// SliceHead keeps the first n rows of each group. Non-positive n keeps
// nothing.
func (t *Table) SliceHead(n int) (*Table, error) {
	return t.mapGroups(func(rows []int) ([]int, error) {
		if n <= 0 {
			return nil, nil
		}
		if n < len(rows) {
			return rows[:n], nil
		}
		return rows, nil
	})
}

// SliceTail keeps the last n rows of each group. Non-positive n keeps
// nothing.
func (t *Table) SliceTail(n int) (*Table, error) {
	return t.mapGroups(func(rows []int) ([]int, error) {
		if n <= 0 {
			return nil, nil
		}
		if n < len(rows) {
			return rows[len(rows)-n:], nil
		}
		return rows, nil
	})
}

// SliceMin keeps the n rows with the smallest key values in each group,
// including every row tied with the n-th smallest, in original row
// order. Rows with a missing key are considered largest.
func (t *Table) SliceMin(key Expr, n int) (*Table, error) {
	return t.sliceExtreme(nil, key, n, false)
}

// SliceMax keeps the n rows with the largest key values in each group,
// including boundary ties, in original row order.
func (t *Table) SliceMax(key Expr, n int) (*Table, error) {
	return t.sliceExtreme(nil, key, n, true)
}

func (t *Table) sliceExtreme(env *Env, key Expr, n int, descending bool) (*Table, error) {
	return t.mapGroups(func(rows []int) ([]int, error) {
		slice := t.subsetRows(rows)
		cs := newColSet(slice)
		v, err := evalNode(key.n, cs, env, slice.rows)
		if err != nil {
			return nil, err
		}
		if len(v) != 1 && len(v) != slice.rows {
			return nil, errRecycleLength(key.String(), len(v), slice.rows)
		}
		v = v.recycle(slice.rows)
		if n >= slice.rows {
			return rows, nil
		}
		if n <= 0 {
			return nil, nil
		}
		order, err := orderBy(slice.rows, []sortKey{{values: v, descending: descending}})
		if err != nil {
			return nil, err
		}
		cutoff := v[order[n-1]]
		member := make([]bool, slice.rows)
		for _, o := range order[:n] {
			member[o] = true
		}
		// Boundary ties are all kept, so the result can exceed n rows.
		for _, o := range order[n:] {
			if v[o].equal(cutoff) {
				member[o] = true
			}
		}
		var out []int
		for i, m := range member {
			if m {
				out = append(out, rows[i])
			}
		}
		return out, nil
	})
}

// SampleSpec configures SliceSample. Exactly one of N and Prop should
// be set; Prop is a fraction of each group's row count. Weights, when
// given, is evaluated per group and biases the draw; Rand makes the
// sampling deterministic for tests.
type SampleSpec struct {
	N       int
	Prop    float64
	Replace bool
	Weights Expr
	Rand    *rand.Rand
}

// SliceSample selects rows pseudo-randomly within each group. Without
// replacement the sample size is capped at the group size. Sampled rows
// appear in draw order.
func (t *Table) SliceSample(spec SampleSpec) (*Table, error) {
	return t.SliceSampleWith(nil, spec)
}

// SliceSampleWith is SliceSample with explicit enclosing-scope bindings
// for the weight expression.
func (t *Table) SliceSampleWith(env *Env, spec SampleSpec) (*Table, error) {
	rng := spec.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return t.mapGroups(func(rows []int) ([]int, error) {
		size := len(rows)
		k := spec.N
		if spec.Prop > 0 {
			k = int(spec.Prop*float64(size) + 0.5)
		}
		if !spec.Replace && k > size {
			k = size
		}
		if k <= 0 || size == 0 {
			return nil, nil
		}

		weights := make([]float64, size)
		if spec.Weights.n != nil {
			slice := t.subsetRows(rows)
			v, err := evalNode(spec.Weights.n, newColSet(slice), env, size)
			if err != nil {
				return nil, err
			}
			if len(v) != 1 && len(v) != size {
				return nil, errRecycleLength(spec.Weights.String(), len(v), size)
			}
			v = v.recycle(size)
			for i, val := range v {
				if val.null || !val.kind.IsNumeric() {
					return nil, errTypeMismatch("slice_sample", val.kind, Float64)
				}
				w := val.Float()
				if w < 0 {
					return nil, errAmbiguous(spec.Weights.String(), "sampling weights must be non-negative")
				}
				weights[i] = w
			}
		} else {
			for i := range weights {
				weights[i] = 1
			}
		}

		total := 0.0
		for _, w := range weights {
			total += w
		}

		var out []int
		for draw := 0; draw < k; draw++ {
			if total <= 0 {
				break
			}
			x := rng.Float64() * total
			pick := size - 1
			for i, w := range weights {
				if w <= 0 {
					continue
				}
				if x < w {
					pick = i
					break
				}
				x -= w
			}
			out = append(out, rows[pick])
			if !spec.Replace {
				total -= weights[pick]
				weights[pick] = 0
			}
		}
		return out, nil
	})
}
