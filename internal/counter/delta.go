// Package counter computes per-run deltas and rates from cumulative
// counters, using the previous run's values kept in an entity's state.
package counter

import (
	"math"
	"strconv"
	"strings"

	"github.com/senbaris/clustereye-pgcheck/internal/state"
)

// Diff returns current minus the value stored under name. When there is no
// stored value, or it is not a number, current is returned unchanged.
// Diff does not modify s.
func Diff(s state.Section, name string, current int64) int64 {
	prev, ok := lastCheckValue(s, name)
	if !ok {
		return current
	}
	return current - prev
}

// StoreLastCheckValue records current as the value of name for the next run.
func StoreLastCheckValue(s state.Section, name string, current int64) {
	s[name] = strconv.FormatInt(current, 10)
}

func lastCheckValue(s state.Section, name string) (int64, bool) {
	raw, ok := s[name]
	if !ok {
		return 0, false
	}
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}
