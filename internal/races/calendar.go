// Package races holds the league calendar: which instant each round of each
// series starts at, and the weather the schedule produces at that instant.
package races

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"raceweather/internal/weather"
)

// Series identifies a championship.
type Series string

const (
	F1 Series = "f1"
	F2 Series = "f2"
	F3 Series = "f3"
)

// TotalRounds is the number of rounds in a season.
const TotalRounds = 13

const (
	// breakAfterRound is the first round raced after the mid-season break.
	breakAfterRound = 8
	sprintLead      = 30 * time.Minute
	week            = 7 * 24 * time.Hour
)

var (
	ErrUnknownSeries  = errors.New("races: unknown series")
	ErrInvalidRound   = errors.New("races: invalid round")
	ErrOffSeason      = errors.New("races: off-season")
	ErrMidSeasonBreak = errors.New("races: mid-season break")
)

// SeriesError carries the closest known series name for an unknown input.
type SeriesError struct {
	Input      string
	Suggestion Series
}

func (e *SeriesError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown series %q, did you mean %q?", e.Input, e.Suggestion)
	}
	return fmt.Sprintf("unknown series %q", e.Input)
}

func (e *SeriesError) Unwrap() error { return ErrUnknownSeries }

// Calendar describes one season.
type Calendar struct {
	// FirstRound maps each series to the start of its round 1.
	FirstRound   map[Series]time.Time
	SprintRounds map[int]bool
	BreakStart   time.Time
	BreakLength  time.Duration
}

// DefaultCalendar returns the current season.
func DefaultCalendar() *Calendar {
	return &Calendar{
		FirstRound: map[Series]time.Time{
			F1: time.Date(2025, 5, 4, 18, 0, 0, 0, time.UTC),
			F2: time.Date(2025, 5, 3, 17, 0, 0, 0, time.UTC),
			F3: time.Date(2025, 5, 2, 17, 0, 0, 0, time.UTC),
		},
		SprintRounds: map[int]bool{3: true, 6: true, 11: true},
		BreakStart:   time.Date(2025, 6, 20, 18, 0, 0, 0, time.UTC),
		BreakLength:  week,
	}
}

var seriesAliases = map[string]Series{
	"f1":        F1,
	"f2":        F2,
	"f3":        F3,
	"formula1":  F1,
	"formula2":  F2,
	"formula3":  F3,
	"formula 1": F1,
	"formula 2": F2,
	"formula 3": F3,
}

// ParseSeries resolves a case-insensitive series name. An empty string means
// F1. Unknown names return a *SeriesError wrapping ErrUnknownSeries.
func ParseSeries(s string) (Series, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return F1, nil
	}
	if series, ok := seriesAliases[key]; ok {
		return series, nil
	}
	return "", &SeriesError{Input: s, Suggestion: suggestSeries(key)}
}

func suggestSeries(key string) Series {
	type candidate struct {
		alias string
		dist  int
	}
	var best []candidate
	for alias := range seriesAliases {
		d := levenshtein.ComputeDistance(key, alias)
		if d > distanceLimit(len(alias)) {
			continue
		}
		best = append(best, candidate{alias, d})
	}
	if len(best) == 0 {
		return ""
	}
	sort.Slice(best, func(i, j int) bool {
		if best[i].dist == best[j].dist {
			return best[i].alias < best[j].alias
		}
		return best[i].dist < best[j].dist
	})
	return seriesAliases[best[0].alias]
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	default:
		return 2
	}
}

// ParseRound accepts "r3", "R3" or "3".
func ParseRound(s string) (int, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "r")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q, expected r1-r%d", ErrInvalidRound, s, TotalRounds)
	}
	if n > TotalRounds {
		return 0, fmt.Errorf("%w: round %d is after the final round", ErrOffSeason, n)
	}
	return n, nil
}

// IsSprint reports whether round starts early for a sprint.
func (c *Calendar) IsSprint(round int) bool {
	return c.SprintRounds[round]
}

// StartOf returns the start instant of a round.
func (c *Calendar) StartOf(series Series, round int) (time.Time, error) {
	first, ok := c.FirstRound[series]
	if !ok {
		return time.Time{}, &SeriesError{Input: string(series)}
	}
	if round < 1 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidRound, round)
	}
	if round > TotalRounds {
		return time.Time{}, fmt.Errorf("%w: round %d", ErrOffSeason, round)
	}

	start := first.Add(time.Duration(round-1) * week)
	// Rounds after the break are pushed back a week; earlier rounds must not
	// land inside it.
	if round >= breakAfterRound {
		start = start.Add(week)
	} else if c.InBreak(start) {
		return time.Time{}, fmt.Errorf("%w: %s round %d", ErrMidSeasonBreak, series, round)
	}
	if c.IsSprint(round) {
		start = start.Add(-sprintLead)
	}
	return start, nil
}

// InBreak reports whether t falls inside the mid-season break week.
func (c *Calendar) InBreak(t time.Time) bool {
	return !t.Before(c.BreakStart) && t.Before(c.BreakStart.Add(c.BreakLength))
}

// NextRound returns the first round of series starting at or after now.
func (c *Calendar) NextRound(series Series, now time.Time) (int, time.Time, error) {
	for round := 1; round <= TotalRounds; round++ {
		start, err := c.StartOf(series, round)
		if errors.Is(err, ErrMidSeasonBreak) {
			continue
		}
		if err != nil {
			return 0, time.Time{}, err
		}
		if !start.Before(now) {
			return round, start, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("%w: %s season is concluded", ErrOffSeason, series)
}

// RaceWeather is the forecast for one round.
type RaceWeather struct {
	Series Series
	Round  int
	Sprint bool
	Start  time.Time
	Report weather.Report
}

// Weather resolves the start of a round and the weather at that instant.
func (c *Calendar) Weather(f *weather.Forecaster, series Series, round int) (RaceWeather, error) {
	start, err := c.StartOf(series, round)
	if err != nil {
		return RaceWeather{}, err
	}
	report, err := f.Report(start)
	if err != nil {
		return RaceWeather{}, fmt.Errorf("race weather %s r%d: %w", series, round, err)
	}
	return RaceWeather{
		Series: series,
		Round:  round,
		Sprint: c.IsSprint(round),
		Start:  start,
		Report: report,
	}, nil
}

// RaceDistanceSeconds is the target race length used for lap counts.
const RaceDistanceSeconds = 2400

// LapCount returns the number of laps for a given lap time: enough laps to
// cover the race distance plus two.
func LapCount(lapSeconds float64) int {
	return int(math.Ceil(RaceDistanceSeconds/lapSeconds)) + 2
}

// LapEstimate is one row of the lap count table.
type LapEstimate struct {
	LapSeconds float64 `json:"lap_seconds"`
	Laps       int     `json:"laps"`
	Selected   bool    `json:"selected"`
}

// LapCountTable lists lap counts from lapSeconds+0.8 down to lapSeconds-0.8
// in 0.1 second steps. The requested lap time is marked Selected; rows that
// would be zero or negative are dropped.
func LapCountTable(lapSeconds float64) ([]LapEstimate, error) {
	if math.IsNaN(lapSeconds) || math.IsInf(lapSeconds, 0) || lapSeconds <= 0 {
		return nil, fmt.Errorf("lap time must be a positive number of seconds, got %v", lapSeconds)
	}

	rows := make([]LapEstimate, 0, 17)
	for step := 8; step >= -8; step-- {
		t := math.Round((lapSeconds+0.1*float64(step))*10) / 10
		if step == 0 {
			t = lapSeconds
		}
		if t <= 0 {
			continue
		}
		rows = append(rows, LapEstimate{LapSeconds: t, Laps: LapCount(t), Selected: step == 0})
	}
	return rows, nil
}
