package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"raceweather/internal/core"
	"raceweather/internal/notifications/webhook"
	"raceweather/internal/panels"
	"raceweather/internal/races"
	"raceweather/internal/types"
	"raceweather/internal/weather"
)

// RaceHandler serves race weather and the lap count estimator.
type RaceHandler struct {
	calendar   *races.Calendar
	forecaster *weather.Forecaster
	clock      types.Clock
	formatOpts webhook.FormatOptions
	validator  *core.Validator
	logger     *slog.Logger
}

// NewRaceHandler creates a RaceHandler.
func NewRaceHandler(
	calendar *races.Calendar,
	forecaster *weather.Forecaster,
	clock types.Clock,
	formatOpts webhook.FormatOptions,
	val *core.Validator,
	logger *slog.Logger,
) *RaceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if calendar == nil {
		calendar = races.DefaultCalendar()
	}
	return &RaceHandler{
		calendar:   calendar,
		forecaster: forecaster,
		clock:      clock,
		formatOpts: formatOpts,
		validator:  val,
		logger:     logger,
	}
}

// RegisterRoutes mounts the race endpoints, expected under /v1/races.
// The static lapcount routes take precedence over {series}.
func (h *RaceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/lapcount", h.HandleLapCount)
	r.Get("/lapcount/panel", h.HandleLapCountPanel)
	r.Get("/{series}", h.HandleGetRace)
	r.Get("/{series}/panel", h.HandleGetRacePanel)
}

// RaceResponse is the body of GET /v1/races/{series}.
type RaceResponse struct {
	Series       races.Series   `json:"series"`
	Round        int            `json:"round"`
	Sprint       bool           `json:"sprint"`
	Start        time.Time      `json:"start"`
	StartDisplay string         `json:"start_display"`
	InBreak      bool           `json:"in_break"`
	Clock        string         `json:"clock"`
	Weekday      string         `json:"weekday"`
	Report       weather.Report `json:"report"`
}

// HandleGetRace handles GET /v1/races/{series}?round=rN. Without a round the
// next round starting at or after now is used.
func (h *RaceHandler) HandleGetRace(w http.ResponseWriter, r *http.Request) {
	rw, err := h.resolve(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	resp := RaceResponse{
		Series:       rw.Series,
		Round:        rw.Round,
		Sprint:       rw.Sprint,
		Start:        rw.Start,
		StartDisplay: weather.FormatDate(rw.Start),
		InBreak:      h.calendar.InBreak(rw.Start),
		Clock:        rw.Report.Clock.Clock(),
		Weekday:      rw.Report.Clock.Weekday,
		Report:       rw.Report,
	}

	var warnings []string
	if resp.InBreak {
		warnings = append(warnings, "round starts inside the mid-season break")
	}
	core.Respond(w, r, http.StatusOK, resp, warnings...)
}

// HandleGetRacePanel handles GET /v1/races/{series}/panel.
func (h *RaceHandler) HandleGetRacePanel(w http.ResponseWriter, r *http.Request) {
	rw, err := h.resolve(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	p := panels.Race(rw)
	core.Respond(w, r, http.StatusOK, webhook.DiscordPayloadFor(&p, h.formatOpts))
}

func (h *RaceHandler) resolve(r *http.Request) (races.RaceWeather, error) {
	series, err := races.ParseSeries(chi.URLParam(r, "series"))
	if err != nil {
		return races.RaceWeather{}, raceError(err)
	}

	var round int
	if raw := r.URL.Query().Get("round"); raw != "" {
		round, err = races.ParseRound(raw)
	} else {
		round, _, err = h.calendar.NextRound(series, h.clock.Now())
	}
	if err != nil {
		return races.RaceWeather{}, raceError(err)
	}

	rw, err := h.calendar.Weather(h.forecaster, series, round)
	if err != nil {
		h.logger.Warn("race weather lookup failed",
			slog.String("series", string(series)),
			slog.Int("round", round),
			slog.String("error", err.Error()),
		)
		return races.RaceWeather{}, raceError(err)
	}
	return rw, nil
}

// raceError maps calendar errors onto API errors.
func raceError(err error) error {
	var serr *races.SeriesError
	switch {
	case errors.As(err, &serr):
		details := map[string]any{"input": serr.Input}
		if serr.Suggestion != "" {
			details["suggestion"] = string(serr.Suggestion)
		}
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidSeries, serr.Error(), err, details)
	case errors.Is(err, races.ErrInvalidRound):
		return types.NewAppError(types.ErrCodeValidationInvalidRound, err.Error(), err)
	case errors.Is(err, races.ErrOffSeason):
		return types.NewAppError(types.ErrCodeConflictOffSeason, err.Error(), err)
	case errors.Is(err, races.ErrMidSeasonBreak):
		return types.NewAppError(types.ErrCodeConflictMidSeasonBreak, err.Error(), err)
	default:
		return forecastError(err)
	}
}

// LapCountResponse is the body of GET /v1/races/lapcount.
type LapCountResponse struct {
	LapSeconds float64             `json:"lap_seconds"`
	Laps       int                 `json:"laps"`
	Table      []races.LapEstimate `json:"table"`
}

type lapQuery struct {
	LapTime float64 `query:"lap_time" validate:"lap_time"`
}

var lapFieldCodes = map[string]types.ErrorCode{
	"lap_time": types.ErrCodeValidationInvalidLapTime,
}

// HandleLapCount handles GET /v1/races/lapcount?lap_time=S.
func (h *RaceHandler) HandleLapCount(w http.ResponseWriter, r *http.Request) {
	rows, lap, err := h.lapTable(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Respond(w, r, http.StatusOK, LapCountResponse{
		LapSeconds: lap,
		Laps:       races.LapCount(lap),
		Table:      rows,
	})
}

// HandleLapCountPanel handles GET /v1/races/lapcount/panel?lap_time=S.
func (h *RaceHandler) HandleLapCountPanel(w http.ResponseWriter, r *http.Request) {
	rows, _, err := h.lapTable(r)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	p := panels.LapCount(rows)
	core.Respond(w, r, http.StatusOK, webhook.DiscordPayloadFor(&p, h.formatOpts))
}

func (h *RaceHandler) lapTable(r *http.Request) ([]races.LapEstimate, float64, error) {
	raw := r.URL.Query().Get("lap_time")
	if raw == "" {
		return nil, 0, types.NewAppError(types.ErrCodeValidationMissingField, "lap_time is required", nil)
	}
	lap, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, 0, types.NewAppError(types.ErrCodeValidationInvalidLapTime, "lap_time must be a number of seconds", err)
	}
	if err := h.validator.ValidateStruct(lapQuery{LapTime: lap}, lapFieldCodes); err != nil {
		return nil, 0, err
	}

	rows, err := races.LapCountTable(lap)
	if err != nil {
		return nil, 0, types.NewAppError(types.ErrCodeValidationInvalidLapTime, err.Error(), err)
	}
	return rows, lap, nil
}
