// Package probe runs startup checks against the external dependencies a
// role needs before it starts serving.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CheckFunc performs one health check.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check. Critical failures prevent startup;
// non-critical ones are only logged.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool
}

// Result is the outcome of one probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// checkTimeout bounds a single probe even under a long-lived parent context.
const checkTimeout = 5 * time.Second

// Run executes the probes in order and collects their results.
func Run(ctx context.Context, probes []Probe) []Result {
	results := make([]Result, len(probes))
	for i, p := range probes {
		started := time.Now()
		probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := p.Check(probeCtx)
		cancel()
		results[i] = Result{Probe: p, Error: err, Duration: time.Since(started)}
	}
	return results
}

// Analyze logs every result and returns the joined critical failures, nil
// when startup may proceed.
func Analyze(results []Result) error {
	var critical []error
	for _, r := range results {
		elapsed := r.Duration.Round(time.Millisecond)
		if r.Error == nil {
			slog.Info("startup check passed", "check", r.Probe.Name, "elapsed", elapsed)
			continue
		}
		slog.Error("startup check failed",
			"check", r.Probe.Name, "critical", r.Probe.Critical,
			"elapsed", elapsed, "error", r.Error)
		if r.Probe.Critical {
			critical = append(critical, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		}
	}
	return errors.Join(critical...)
}
