package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"raceweather/internal/panels"
	"raceweather/internal/types"
	"raceweather/internal/weather"
)

// deliveryConcurrencyLimit caps parallel webhook posts per run.
const deliveryConcurrencyLimit = 8

// ShouldAlert reports whether a window starting at start must be announced by
// the run at now. The run is first snapped to its tick on the interval grid;
// exactly one tick satisfies
//
//	tick < start <= tick+lead  and  start > tick+lead-interval
//
// for any start, so a late or early delivery of a run cannot announce a
// window twice or skip it, and the job stays stateless.
func ShouldAlert(start, now time.Time, lead, interval time.Duration) bool {
	if !now.Before(start) {
		return false
	}
	horizon := now.Truncate(interval).Add(lead)
	return !start.After(horizon) && start.After(horizon.Add(-interval))
}

// Run evaluates the schedule at now and, when a window is due, posts the
// alert panel to all destinations concurrently. Delivery failures are
// isolated per destination and reported in the returned AlertRun.
func (a *RainAlerter) Run(ctx context.Context, now time.Time) (*AlertRun, error) {
	a.metrics.RecordEvaluated(ctx)
	run := &AlertRun{EvaluatedAt: now}

	fc, err := a.forecaster.CurrentForecast(now)
	if err != nil {
		return nil, fmt.Errorf("rain alerter: forecast: %w", err)
	}
	// A window that continues current rain is not news.
	if fc.Precipitating {
		a.logger.Debug("already precipitating, skipping", "changes_at", fc.ChangesAt)
		return run, nil
	}

	windows, err := a.forecaster.Upcoming(now, 1)
	if err != nil {
		return nil, fmt.Errorf("rain alerter: upcoming windows: %w", err)
	}
	if len(windows) == 0 {
		return run, nil
	}

	w := windows[0]
	run.Window = &w
	if !ShouldAlert(w.Start, now, a.lead, a.interval) {
		a.logger.Debug("no alert due", "next_start", w.Start, "lead", a.lead)
		return run, nil
	}

	run.Alerted = true
	panel := panels.RainAlert(w, now)
	a.logger.Info("rain alert due",
		"condition", string(w.Condition.ID),
		"start", w.Start,
		"duration_minutes", w.DurationMinutes,
		"destinations", len(a.destinations),
	)

	if len(a.destinations) == 0 {
		a.logger.Warn("no webhook destinations configured, dry run")
		return run, nil
	}

	run.Outcomes = make([]DeliveryOutcome, len(a.destinations))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(deliveryConcurrencyLimit)

	for i, dest := range a.destinations {
		g.Go(func() error {
			outcome := DeliveryOutcome{Destination: hostOf(dest)}
			result, err := a.sender.Send(gCtx, &panel, dest)
			if err != nil {
				outcome.Err = err.Error()
			} else {
				outcome.Result = result
			}
			// Each goroutine owns its slot.
			run.Outcomes[i] = outcome
			// Do not propagate errors; other destinations must still be tried.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rain alerter: delivery: %w", err)
	}

	for _, o := range run.Outcomes {
		if o.Err == "" && o.Result != nil && o.Result.Status == types.DeliveryStatusSent {
			run.Sent++
			a.metrics.RecordSent(ctx, types.ChannelWebhook)
			continue
		}

		run.Failed++
		a.metrics.RecordDeliveryFailed(ctx, types.ChannelWebhook)
		attrs := []any{"destination", o.Destination}
		if o.Err != "" {
			attrs = append(attrs, "error", o.Err)
		}
		if o.Result != nil {
			attrs = append(attrs, "reason", o.Result.FailureReason, "terminal", o.Result.Terminal)
		}
		a.logger.Warn("rain alert delivery failed", attrs...)
	}

	a.logger.Info("rain alert run complete", "sent", run.Sent, "failed", run.Failed)
	return run, nil
}

// hostOf keeps webhook tokens out of run summaries.
func hostOf(dest string) string {
	u, err := url.Parse(dest)
	if err != nil || u.Host == "" {
		return "[invalid-url]"
	}
	return u.Host
}
