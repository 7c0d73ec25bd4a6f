package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raceweather/internal/core"
	"raceweather/internal/notifications/webhook"
	"raceweather/internal/races"
	"raceweather/internal/types"
	"raceweather/internal/weather"
)

func newTestRaceHandler(cal *races.Calendar, now time.Time) *RaceHandler {
	logger := testLogger()
	return NewRaceHandler(
		cal,
		weather.NewForecaster(nil),
		types.FixedClock(now),
		webhook.FormatOptions{},
		core.NewValidator(logger),
		logger,
	)
}

func makeRaceRouter(h *RaceHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1/races", h.RegisterRoutes)
	return r
}

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

// --- HandleGetRace ---

func TestHandleGetRace_ExplicitRound(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, utc(2025, 4, 1, 0, 0)))

	var resp RaceResponse
	decodeData(t, get(t, router, "/v1/races/F1?round=r1"), &resp)

	assert.Equal(t, races.F1, resp.Series)
	assert.Equal(t, 1, resp.Round)
	assert.False(t, resp.Sprint)
	assert.Equal(t, utc(2025, 5, 4, 18, 0), resp.Start.UTC())
	assert.Equal(t, "Sunday 4th May 18:00", resp.StartDisplay)
	assert.False(t, resp.InBreak)
	assert.Equal(t, "12:00", resp.Clock)
	assert.Equal(t, weather.Clear, resp.Report.Condition.ID)
}

func TestHandleGetRace_Sprint(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, utc(2025, 4, 1, 0, 0)))

	var resp RaceResponse
	decodeData(t, get(t, router, "/v1/races/f2?round=3"), &resp)

	assert.True(t, resp.Sprint)
	assert.Equal(t, utc(2025, 5, 17, 16, 30), resp.Start.UTC())
}

func TestHandleGetRace_NextRound(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, utc(2025, 6, 22, 12, 0)))

	var resp RaceResponse
	decodeData(t, get(t, router, "/v1/races/formula1"), &resp)

	assert.Equal(t, 8, resp.Round)
	assert.Equal(t, utc(2025, 6, 29, 18, 0), resp.Start.UTC())
}

func TestHandleGetRace_Errors(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, utc(2025, 4, 1, 0, 0)))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   types.ErrorCode
	}{
		{"unknown series", "/v1/races/indycar", http.StatusBadRequest, types.ErrCodeValidationInvalidSeries},
		{"malformed round", "/v1/races/f1?round=rx", http.StatusBadRequest, types.ErrCodeValidationInvalidRound},
		{"round zero", "/v1/races/f1?round=r0", http.StatusBadRequest, types.ErrCodeValidationInvalidRound},
		{"after finale", "/v1/races/f1?round=r14", http.StatusConflict, types.ErrCodeConflictOffSeason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, string(tt.wantCode), decodeErrorCode(t, rec).Code)
		})
	}
}

func TestHandleGetRace_SuggestsSeries(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, utc(2025, 4, 1, 0, 0)))

	rec := get(t, router, "/v1/races/f4")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeErrorCode(t, rec)
	assert.Equal(t, "f4", detail.Details["input"])
	assert.NotEmpty(t, detail.Details["suggestion"])
}

func TestHandleGetRace_SeasonConcluded(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, utc(2025, 12, 1, 0, 0)))

	rec := get(t, router, "/v1/races/f3")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(types.ErrCodeConflictOffSeason), decodeErrorCode(t, rec).Code)
}

func TestHandleGetRace_MidSeasonBreakConflict(t *testing.T) {
	cal := races.DefaultCalendar()
	// Move the break onto round 2 so a pre-break round lands inside it.
	cal.BreakStart = utc(2025, 5, 11, 0, 0)

	router := makeRaceRouter(newTestRaceHandler(cal, utc(2025, 4, 1, 0, 0)))
	rec := get(t, router, "/v1/races/f1?round=r2")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(types.ErrCodeConflictMidSeasonBreak), decodeErrorCode(t, rec).Code)
}

func TestHandleGetRacePanel(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, utc(2025, 4, 1, 0, 0)))

	var payload webhook.DiscordPayload
	decodeData(t, get(t, router, "/v1/races/f1/panel?round=r1"), &payload)

	require.Len(t, payload.Embeds, 1)
	embed := payload.Embeds[0]
	assert.Contains(t, embed.Title, "F1 Race Weather")
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "Sunday 4th May 18:00", embed.Footer.Text)
}

// --- HandleLapCount ---

func TestHandleLapCount(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, time.Now()))

	var resp LapCountResponse
	decodeData(t, get(t, router, "/v1/races/lapcount?lap_time=90"), &resp)

	assert.Equal(t, 90.0, resp.LapSeconds)
	assert.Equal(t, 29, resp.Laps)
	require.Len(t, resp.Table, 17)
	assert.Equal(t, 90.8, resp.Table[0].LapSeconds)
	assert.True(t, resp.Table[8].Selected)
}

func TestHandleLapCount_Invalid(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, time.Now()))

	tests := []struct {
		query    string
		wantCode types.ErrorCode
	}{
		{"", types.ErrCodeValidationMissingField},
		{"?lap_time=fast", types.ErrCodeValidationInvalidLapTime},
		{"?lap_time=0", types.ErrCodeValidationInvalidLapTime},
		{"?lap_time=-12", types.ErrCodeValidationInvalidLapTime},
		{"?lap_time=NaN", types.ErrCodeValidationInvalidLapTime},
		{"?lap_time=900", types.ErrCodeValidationInvalidLapTime},
	}
	for _, tt := range tests {
		rec := get(t, router, "/v1/races/lapcount"+tt.query)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.query)
		assert.Equal(t, string(tt.wantCode), decodeErrorCode(t, rec).Code, tt.query)
	}
}

func TestHandleLapCountPanel(t *testing.T) {
	router := makeRaceRouter(newTestRaceHandler(nil, time.Now()))

	var payload webhook.DiscordPayload
	decodeData(t, get(t, router, "/v1/races/lapcount/panel?lap_time=90"), &payload)

	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "🏁 Lap Count Estimator", payload.Embeds[0].Title)
	assert.Equal(t, "**--29--** laps", payload.Embeds[0].Fields[8].Value)
}
