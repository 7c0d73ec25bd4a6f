package handlers

import (
	"context"
	"fmt"

	"raceweather/internal/core"
	"raceweather/internal/types"
	"raceweather/internal/weather"
)

// ScheduleProbe checks that the breakpoint table still validates and that a
// forecast can be computed for the current instant.
type ScheduleProbe struct {
	forecaster *weather.Forecaster
	clock      types.Clock
}

var _ core.HealthProbe = (*ScheduleProbe)(nil)

// NewScheduleProbe creates a probe over forecaster.
func NewScheduleProbe(forecaster *weather.Forecaster, clock types.Clock) *ScheduleProbe {
	if clock == nil {
		clock = types.RealClock{}
	}
	return &ScheduleProbe{forecaster: forecaster, clock: clock}
}

func (p *ScheduleProbe) Name() string { return "schedule" }

func (p *ScheduleProbe) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := weather.NewSchedule(p.forecaster.Schedule().Breakpoints()); err != nil {
		return fmt.Errorf("breakpoint table: %w", err)
	}
	if _, err := p.forecaster.CurrentForecast(p.clock.Now()); err != nil {
		return fmt.Errorf("current forecast: %w", err)
	}
	return nil
}
