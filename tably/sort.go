package tably

import "sort"

// sortKey is one evaluated ordering key: the key values per row plus
// the requested direction.
type sortKey struct {
	values     Vector
	descending bool
}

// orderBy computes the stable permutation of n rows under the given
// keys. Rows comparing equal on every key keep their original relative
// order. Missing values sort after present values in both directions.
func orderBy(n int, keys []sortKey) ([]int, error) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		ra, rb := idx[a], idx[b]
		for _, k := range keys {
			va, vb := k.values[ra], k.values[rb]
			switch {
			case va.null && vb.null:
				continue
			case va.null:
				return false
			case vb.null:
				return true
			}
			cmp, err := compareValues("arrange", va, vb)
			if err != nil {
				sortErr = err
				return false
			}
			if cmp == 0 {
				continue
			}
			if k.descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return idx, nil
}

// splitOrdering strips desc() wrappers from ordering expressions,
// returning the bare expression and the direction.
func splitOrdering(e Expr) (Expr, bool) {
	if call, ok := e.n.(callNode); ok && call.fn == "desc" {
		return Expr{n: call.args[0], label: e.label}, true
	}
	return e, false
}
