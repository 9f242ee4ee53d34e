package counter

import (
	"math"
	"strconv"

	"github.com/senbaris/clustereye-pgcheck/internal/state"
)

// Rate divides a value delta by a time delta. A zero time delta yields the
// value delta itself.
func Rate(valueDelta, timeDelta int64) float64 {
	if timeDelta == 0 {
		return float64(valueDelta)
	}
	return float64(valueDelta) / float64(timeDelta)
}

// Sample diffs a cumulative counter and its timestamp against the values
// stored in s, stores the new raw values and returns the rate rounded down.
// Without a usable stored timestamp the value delta itself is returned.
func Sample(s state.Section, valueName, timeName string, value, ts int64) int64 {
	valueDelta := Diff(s, valueName, value)
	var timeDelta int64
	if _, ok := lastCheckValue(s, timeName); ok {
		timeDelta = Diff(s, timeName, ts)
	}
	StoreLastCheckValue(s, valueName, value)
	StoreLastCheckValue(s, timeName, ts)
	return int64(math.Floor(Rate(valueDelta, timeDelta)))
}

var suffixes = []string{"", "K", "M", "MM"}

// Truncate shortens v by integer division in steps of 1000, appending the
// matching suffix. It stops once v is at most 1000 or the suffixes run out.
func Truncate(v int64) string {
	i := 0
	for v > 1000 && i < len(suffixes)-1 {
		v /= 1000
		i++
	}
	return strconv.FormatInt(v, 10) + suffixes[i]
}
