// Package handlers contains the HTTP handlers for the race weather API:
//   - Current weather report (GET /v1/weather)
//   - Upcoming rain windows (GET /v1/weather/rain)
//   - Discord panel previews (GET /v1/weather/panel)
//   - Race weather (GET /v1/races/{series})
//   - Lap count estimator (GET /v1/races/lapcount)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"raceweather/internal/types"
	"raceweather/internal/weather"
)

// parseInstant reads an RFC 3339 "at" parameter. Missing means now; a
// timestamp without a zone offset is rejected.
func parseInstant(r *http.Request, clock types.Clock) (time.Time, error) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return clock.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidTimestamp,
			"at must be an RFC3339 timestamp with a zone offset",
			err,
			map[string]any{"at": raw},
		)
	}
	return t.UTC(), nil
}

// parseLocation resolves the optional "tz" parameter, falling back to def.
func parseLocation(r *http.Request, def *time.Location) (*time.Location, error) {
	name := r.URL.Query().Get("tz")
	if name == "" {
		if def == nil {
			return time.UTC, nil
		}
		return def, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidTimezone,
			fmt.Sprintf("unknown time zone %q", name),
			err,
			map[string]any{"tz": name},
		)
	}
	return loc, nil
}

// parseIntParam returns def when the parameter is absent.
func parseIntParam(r *http.Request, name string, def int, code types.ErrorCode) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, types.NewAppError(code, name+" must be an integer", err)
	}
	return n, nil
}

// forecastError maps weather package failures onto API errors.
func forecastError(err error) error {
	if errors.Is(err, weather.ErrInvalidInput) {
		return types.NewAppError(types.ErrCodeValidationInvalidTimestamp, err.Error(), err)
	}
	return types.NewAppError(types.ErrCodeInternalSchedule, "weather schedule lookup failed", err)
}

const localLayout = "2006-01-02 15:04:05 MST"
