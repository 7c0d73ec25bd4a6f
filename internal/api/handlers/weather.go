package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"raceweather/internal/core"
	"raceweather/internal/notifications/webhook"
	"raceweather/internal/panels"
	"raceweather/internal/types"
	"raceweather/internal/weather"
)

const (
	defaultRainCount = 4
	maxRainCount     = 20
)

// WeatherHandler serves the current weather and rain forecasts.
type WeatherHandler struct {
	forecaster *weather.Forecaster
	clock      types.Clock
	location   *time.Location
	formatOpts webhook.FormatOptions
	validator  *core.Validator
	logger     *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler. loc is the default display zone
// used when a request carries no tz parameter.
func NewWeatherHandler(
	forecaster *weather.Forecaster,
	clock types.Clock,
	loc *time.Location,
	formatOpts webhook.FormatOptions,
	val *core.Validator,
	logger *slog.Logger,
) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &WeatherHandler{
		forecaster: forecaster,
		clock:      clock,
		location:   loc,
		formatOpts: formatOpts,
		validator:  val,
		logger:     logger,
	}
}

// RegisterRoutes mounts the weather endpoints, expected under /v1/weather.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGetWeather)
	r.Get("/rain", h.HandleGetRain)
	r.Get("/panel", h.HandleGetPanel)
}

// WeatherResponse is the body of GET /v1/weather.
type WeatherResponse struct {
	At       time.Time `json:"at"`
	Weekday  string    `json:"weekday"`
	Clock    string    `json:"clock"`
	Daytime  bool      `json:"daytime"`
	Timezone string    `json:"timezone"`
	weather.Report
	// ChangesAtLocal is Forecast.ChangesAt rendered in the requested zone.
	ChangesAtLocal string `json:"changes_at_local"`
}

// HandleGetWeather handles GET /v1/weather.
func (h *WeatherHandler) HandleGetWeather(w http.ResponseWriter, r *http.Request) {
	at, err := parseInstant(r, h.clock)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	loc, err := parseLocation(r, h.location)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	report, err := h.forecaster.Report(at)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "weather report failed",
			slog.Time("at", at),
			slog.String("error", err.Error()),
		)
		core.Error(w, r, forecastError(err))
		return
	}

	core.Respond(w, r, http.StatusOK, WeatherResponse{
		At:             report.Clock.Instant,
		Weekday:        report.Clock.Weekday,
		Clock:          report.Clock.Clock(),
		Daytime:        report.Clock.IsDaytime,
		Timezone:       loc.String(),
		Report:         report,
		ChangesAtLocal: report.Forecast.ChangesAt.In(loc).Format(localLayout),
	})
}

// RainWindowView is one upcoming window with display strings.
type RainWindowView struct {
	weather.RainWindow
	StartLocal string `json:"start_local"`
	EndLocal   string `json:"end_local"`
	Length     string `json:"length"`
}

// RainResponse is the body of GET /v1/weather/rain.
type RainResponse struct {
	At       time.Time        `json:"at"`
	Timezone string           `json:"timezone"`
	Windows  []RainWindowView `json:"windows"`
}

type rainQuery struct {
	Count int `query:"count" validate:"min=1,max=20"`
}

var rainFieldCodes = map[string]types.ErrorCode{
	"count": types.ErrCodeValidationInvalidCount,
}

// HandleGetRain handles GET /v1/weather/rain.
func (h *WeatherHandler) HandleGetRain(w http.ResponseWriter, r *http.Request) {
	windows, at, loc, ok := h.upcoming(w, r)
	if !ok {
		return
	}

	views := make([]RainWindowView, 0, len(windows))
	for _, win := range windows {
		views = append(views, RainWindowView{
			RainWindow: win,
			StartLocal: win.Start.In(loc).Format(localLayout),
			EndLocal:   win.End.In(loc).Format(localLayout),
			Length:     weather.FormatRainLength(win.Duration()),
		})
	}

	core.Respond(w, r, http.StatusOK, RainResponse{
		At:       at,
		Timezone: loc.String(),
		Windows:  views,
	})
}

// upcoming parses at, tz and count and returns the matching windows. On
// failure it has already written the error response.
func (h *WeatherHandler) upcoming(w http.ResponseWriter, r *http.Request) ([]weather.RainWindow, time.Time, *time.Location, bool) {
	at, err := parseInstant(r, h.clock)
	if err != nil {
		core.Error(w, r, err)
		return nil, time.Time{}, nil, false
	}
	loc, err := parseLocation(r, h.location)
	if err != nil {
		core.Error(w, r, err)
		return nil, time.Time{}, nil, false
	}
	count, err := parseIntParam(r, "count", defaultRainCount, types.ErrCodeValidationInvalidCount)
	if err != nil {
		core.Error(w, r, err)
		return nil, time.Time{}, nil, false
	}
	if err := h.validator.ValidateStruct(rainQuery{Count: count}, rainFieldCodes); err != nil {
		core.Error(w, r, err)
		return nil, time.Time{}, nil, false
	}

	windows, err := h.forecaster.Upcoming(at, count)
	if err != nil {
		core.Error(w, r, forecastError(err))
		return nil, time.Time{}, nil, false
	}
	return windows, at, loc, true
}

// HandleGetPanel handles GET /v1/weather/panel. The kind parameter selects
// the weather (default), rain or help panel; the body is the Discord webhook
// payload that would be posted.
func (h *WeatherHandler) HandleGetPanel(w http.ResponseWriter, r *http.Request) {
	var p panels.Panel

	switch kind := panels.Kind(r.URL.Query().Get("kind")); kind {
	case "", panels.KindWeather:
		at, err := parseInstant(r, h.clock)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		report, err := h.forecaster.Report(at)
		if err != nil {
			core.Error(w, r, forecastError(err))
			return
		}
		p = panels.Weather(report)
	case panels.KindRain:
		windows, at, loc, ok := h.upcoming(w, r)
		if !ok {
			return
		}
		p = panels.Rain(windows, at, loc)
	case panels.KindHelp:
		p = panels.Help()
	default:
		core.Error(w, r, types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidParameter,
			"kind must be weather, rain or help",
			nil,
			map[string]any{"kind": string(kind)},
		))
		return
	}

	core.Respond(w, r, http.StatusOK, webhook.DiscordPayloadFor(&p, h.formatOpts))
}
