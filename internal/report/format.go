package report

import (
	"fmt"
	"strings"
)

// Pair formats name=value, the element of the top users / addresses lists.
type Pair struct {
	Name  string
	Value interface{}
}

// JoinPairs renders pairs as "a=1,b=2".
func JoinPairs(pairs []Pair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%v", p.Name, p.Value))
	}
	return strings.Join(parts, ",")
}

// Percent renders a 0..1 ratio as a whole percentage, "-" when unknown.
func Percent(ratio *float64) string {
	if ratio == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", int(*ratio*100))
}

// DatabasePiece renders the performance piece of one database:
// "[name=item,item,...]".
func DatabasePiece(name string, items []string) string {
	return "[" + name + "=" + strings.Join(items, ",") + "]"
}
