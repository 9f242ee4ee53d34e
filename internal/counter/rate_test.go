package counter

import (
	"testing"

	"github.com/senbaris/clustereye-pgcheck/internal/state"
)

func TestRate(t *testing.T) {
	tests := []struct {
		name       string
		value, dur int64
		want       float64
	}{
		{"regular", 100, 10, 10},
		{"fraction", 5, 2, 2.5},
		{"zero time", 100, 0, 100},
		{"zero time zero value", 0, 0, 0},
		{"zero time negative value", -7, 0, -7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rate(tt.value, tt.dur); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSampleScenario(t *testing.T) {
	s := state.Section{}

	// First run: no history, the raw counter is reported.
	if got := Sample(s, "qps", "qpstime", 500, 1000); got != 500 {
		t.Errorf("first run: expected 500, got %d", got)
	}
	if s["qps"] != "500" || s["qpstime"] != "1000" {
		t.Errorf("first run: unexpected stored values %v", s)
	}

	if got := Sample(s, "qps", "qpstime", 600, 1010); got != 10 {
		t.Errorf("second run: expected 10, got %d", got)
	}
	if s["qps"] != "600" || s["qpstime"] != "1010" {
		t.Errorf("second run: unexpected stored values %v", s)
	}

	// Same second: the delta itself.
	if got := Sample(s, "qps", "qpstime", 650, 1010); got != 50 {
		t.Errorf("same second: expected 50, got %d", got)
	}
}

func TestSampleCorruptTimestamp(t *testing.T) {
	s := state.Section{"qps": "500", "qpstime": "yesterday"}
	if got := Sample(s, "qps", "qpstime", 600, 1010); got != 100 {
		t.Errorf("expected the value delta, got %d", got)
	}
	if s["qpstime"] != "1010" {
		t.Errorf("expected timestamp repaired, got %q", s["qpstime"])
	}
}

func TestSampleRoundsDown(t *testing.T) {
	s := state.Section{"qps": "0", "qpstime": "0"}
	if got := Sample(s, "qps", "qpstime", 29, 10); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1000"},
		{1001, "1K"},
		{1500, "1K"},
		{999_999, "999K"},
		{2_500_000, "2M"},
		{4_000_000_000, "4MM"},
		{4_000_000_000_000, "4000MM"},
		{-5000, "-5000"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in); got != tt.want {
			t.Errorf("Truncate(%d): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
