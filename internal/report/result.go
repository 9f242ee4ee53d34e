// Package report accumulates the outcome of one check run and renders the
// single status line read by the monitoring supervisor.
package report

import (
	"fmt"
	"strings"
)

// Status is the check severity. Its numeric value is the process exit code.
type Status int

const (
	OK Status = iota
	Warning
	Critical
	Unknown
)

func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Result collects messages, performance data and the worst severity seen.
// One Result is created per run and passed down to whoever reports into it.
type Result struct {
	status   Status
	messages []string
	perf     []string
}

// New returns an empty OK result.
func New() *Result {
	return &Result{status: OK}
}

// Add appends a message and raises the severity to status if it is worse.
func (r *Result) Add(status Status, format string, args ...interface{}) {
	r.Raise(status)
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	r.messages = append(r.messages, format)
}

// Raise raises the severity without adding a message.
func (r *Result) Raise(status Status) {
	if status > r.status {
		r.status = status
	}
}

// AddPerf appends one performance piece, e.g. "[payments=qps:10]".
func (r *Result) AddPerf(piece string) {
	r.perf = append(r.perf, piece)
}

// Status returns the worst severity reported so far.
func (r *Result) Status() Status {
	return r.status
}

// Messages returns the messages in the order they were added.
func (r *Result) Messages() []string {
	return append([]string(nil), r.messages...)
}

// ExitCode maps the severity to the plugin exit code.
func (r *Result) ExitCode() int {
	return int(r.status)
}

// String renders "<STATUS>: <msg> / <msg> | DB:<perf> <perf>".
func (r *Result) String() string {
	var b strings.Builder
	b.WriteString(r.status.String())
	b.WriteString(":")
	if len(r.messages) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(r.messages, " / "))
	}
	if len(r.perf) > 0 {
		b.WriteString(" | DB:")
		b.WriteString(strings.Join(r.perf, " "))
	}
	return b.String()
}
