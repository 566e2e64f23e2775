// Package probe runs the startup checks.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a single check.
const DefaultTimeout = 5 * time.Second

// CheckFunc returns nil if the check passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check.
type Probe struct {
	Name  string
	Check CheckFunc
	// Critical failures prevent startup.
	Critical bool
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool { return r.Error == nil }

// Run executes probes in order, each under its own timeout.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, 0, len(probes))
	for _, p := range probes {
		results = append(results, runOne(ctx, p))
	}
	return results
}

func runOne(ctx context.Context, p Probe) Result {
	checkCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	start := time.Now()
	err := p.Check(checkCtx)
	return Result{Probe: p, Error: err, Duration: time.Since(start)}
}

// AnalyzeResults logs every result and joins the errors of failed critical probes.
func AnalyzeResults(results []Result) error {
	var critical []error

	slog.Info("Startup: Checks summary", "probes", len(results))
	for _, r := range results {
		line := fmt.Sprintf("[%s] %-16s (%v)", status(r), r.Probe.Name, r.Duration.Round(time.Millisecond))
		if r.Passed() {
			slog.Info(line)
			continue
		}
		if !r.Probe.Critical {
			slog.Warn(line, "error", r.Error)
			continue
		}
		slog.Error(line, "error", r.Error)
		critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
	}

	return errors.Join(critical...)
}

func status(r Result) string {
	switch {
	case r.Passed():
		return "PASS"
	case r.Probe.Critical:
		return "FAIL"
	default:
		return "WARN"
	}
}
