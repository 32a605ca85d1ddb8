// Package report provides an ordered, append-only accumulator for
// human-readable analysis findings, decoupled from wherever the text ends up
// (console, file, HTTP payload).
package report

import (
	"fmt"
	"strings"
)

const ruleWidth = 80

// Accumulator collects report lines in insertion order. Write-once,
// read-at-the-end: no parsing, no queries.
type Accumulator struct {
	lines []string
}

// New creates an empty report accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// AddSection appends a section header. Level 1 sections use "=" rules,
// deeper levels use "-" rules.
func (a *Accumulator) AddSection(title string, level int) {
	rule := strings.Repeat("-", ruleWidth)
	if level <= 1 {
		rule = strings.Repeat("=", ruleWidth)
	}
	a.lines = append(a.lines, "", rule, title, rule)
}

// AddLine appends one line of report text.
func (a *Accumulator) AddLine(text string) {
	a.lines = append(a.lines, text)
}

// AddLinef appends one formatted line of report text.
func (a *Accumulator) AddLinef(format string, args ...interface{}) {
	a.lines = append(a.lines, fmt.Sprintf(format, args...))
}

// Len returns the number of accumulated lines.
func (a *Accumulator) Len() int {
	return len(a.lines)
}

// Serialize joins all accumulated lines into a single text blob, preserving
// insertion order.
func (a *Accumulator) Serialize() string {
	return strings.Join(a.lines, "\n")
}
