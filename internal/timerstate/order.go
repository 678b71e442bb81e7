package timerstate

import (
	"cmp"
	"slices"
	"strconv"
)

// Compare orders snapshots for display: DisplayOrder, then numeric id
// (non-numeric ids after numeric ones), then name.
func Compare(a, b TimerSnapshot) int {
	if c := cmp.Compare(a.DisplayOrder, b.DisplayOrder); c != 0 {
		return c
	}

	na, errA := strconv.ParseInt(a.ID, 10, 64)
	nb, errB := strconv.ParseInt(b.ID, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		if c := cmp.Compare(a.ID, b.ID); c != 0 {
			return c
		}
	}

	return cmp.Compare(a.Name, b.Name)
}

// Sorted returns the snapshots of set in display order.
func Sorted(set map[string]TimerSnapshot) []TimerSnapshot {
	out := make([]TimerSnapshot, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	slices.SortFunc(out, Compare)
	return out
}
