package build

import "time"

// Report summarizes one build.
type Report struct {
	BuildID   string
	Started   time.Time
	Duration  time.Duration
	Documents int
	Copied    int
	// Warnings counts documents whose front matter was ignored.
	Warnings int
	Rules    []RuleReport
	// Outputs lists every file written, in write order.
	Outputs []string
	// Err is the error that stopped the build, if any.
	Err error
}

// RuleReport summarizes one rule within a build.
type RuleReport struct {
	Name      string
	Documents int
	Duration  time.Duration
}

// Succeeded reports whether the build completed.
func (r *Report) Succeeded() bool {
	return r != nil && r.Err == nil
}
