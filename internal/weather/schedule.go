package weather

import (
	"errors"
	"fmt"
	"math"
)

const (
	// GameSecondsPerHour is the number of real seconds that make up one in-game hour.
	GameSecondsPerHour = 120

	// CycleLength is the number of in-game hours before the weather schedule repeats.
	CycleLength = 384

	// SunriseHour and SunsetHour bound the in-game daytime window [Sunrise, Sunset).
	SunriseHour = 5
	SunsetHour  = 21
)

// ErrInvalidInput is returned for non-finite offsets and unusable instants.
var ErrInvalidInput = errors.New("weather: invalid input")

// Breakpoint marks the cycle offset (in in-game hours) at which a condition begins.
type Breakpoint struct {
	Offset    float64
	Condition ConditionID
}

// Window is a precipitation period expressed in cycle-offset space. Offsets
// are virtual: they grow past CycleLength when the walk wraps.
type Window struct {
	StartOffset float64
	EndOffset   float64
	Condition   Condition
}

// schedule is strictly increasing in Offset and every Offset lies in [0, CycleLength).
var schedule = [...]Breakpoint{
	{0, PartlyCloudy},
	{4, Misty},
	{7, MostlyCloudy},
	{11, Clear},
	{14, Misty},
	{16, Clear},
	{28, Misty},
	{31, Clear},
	{41, Hazy},
	{45, PartlyCloudy},
	{52, Misty},
	{55, Cloudy},
	{62, Foggy},
	{66, Cloudy},
	{72, PartlyCloudy},
	{78, Foggy},
	{82, Cloudy},
	{92, MostlyClear},
	{104, PartlyCloudy},
	{105, Drizzling},
	{108, PartlyCloudy},
	{125, Misty},
	{128, PartlyCloudy},
	{131, Raining},
	{134, Drizzling},
	{137, Cloudy},
	{148, Misty},
	{151, MostlyCloudy},
	{155, Foggy},
	{159, Clear},
	{176, MostlyClear},
	{196, Foggy},
	{201, PartlyCloudy},
	{220, Misty},
	{222, MostlyClear},
	{244, Misty},
	{246, MostlyClear},
	{247, Raining},
	{250, Drizzling},
	{252, PartlyCloudy},
	{268, Misty},
	{270, PartlyCloudy},
	{272, Cloudy},
	{277, PartlyCloudy},
	{292, Misty},
	{295, PartlyCloudy},
	{300, MostlyCloudy},
	{306, PartlyCloudy},
	{318, MostlyCloudy},
	{330, PartlyCloudy},
	{337, Clear},
	{367, PartlyCloudy},
	{369, Raining},
	{376, Drizzling},
	{377, PartlyCloudy},
}

// Schedule is a circular, piecewise-constant table of breakpoints. The zero
// value is not usable; use DefaultSchedule or NewSchedule.
type Schedule struct {
	points []Breakpoint
}

var defaultSchedule = &Schedule{points: schedule[:]}

// DefaultSchedule returns the built-in weather schedule.
func DefaultSchedule() *Schedule {
	return defaultSchedule
}

// NewSchedule builds a schedule from a custom table. Offsets must be strictly
// increasing within [0, CycleLength) and every condition must be catalogued.
func NewSchedule(points []Breakpoint) (*Schedule, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: empty schedule", ErrInvalidInput)
	}
	prev := math.Inf(-1)
	for i, p := range points {
		if math.IsNaN(p.Offset) || p.Offset < 0 || p.Offset >= CycleLength {
			return nil, fmt.Errorf("%w: breakpoint %d offset %v out of range", ErrInvalidInput, i, p.Offset)
		}
		if p.Offset <= prev {
			return nil, fmt.Errorf("%w: breakpoint %d offset %v not increasing", ErrInvalidInput, i, p.Offset)
		}
		if _, ok := Lookup(p.Condition); !ok {
			return nil, fmt.Errorf("%w: breakpoint %d has unknown condition %q", ErrInvalidInput, i, p.Condition)
		}
		prev = p.Offset
	}
	cp := make([]Breakpoint, len(points))
	copy(cp, points)
	return &Schedule{points: cp}, nil
}

// Breakpoints returns a copy of the table.
func (s *Schedule) Breakpoints() []Breakpoint {
	out := make([]Breakpoint, len(s.points))
	copy(out, s.points)
	return out
}

// ConditionAt returns the condition active at offset. The offset is reduced
// modulo CycleLength first; an exact breakpoint match selects that breakpoint.
func (s *Schedule) ConditionAt(offset float64) (Condition, error) {
	if !isFinite(offset) {
		return Condition{}, fmt.Errorf("%w: offset %v", ErrInvalidInput, offset)
	}
	return mustLookup(s.points[s.indexAt(reduce(offset))].Condition), nil
}

// indexAt returns the index of the last breakpoint <= o, or the last index
// when o precedes the first breakpoint. o must already be reduced.
func (s *Schedule) indexAt(o float64) int {
	idx := len(s.points) - 1
	for i, p := range s.points {
		if p.Offset > o {
			break
		}
		idx = i
	}
	return idx
}

// NextTransition walks forward from offset to the first breakpoint whose
// precipitation class differs from precipitating. It returns the offset delta
// to that breakpoint and its class. A table with a single class yields a zero
// delta and the input class.
func (s *Schedule) NextTransition(offset float64, precipitating bool) (float64, bool, error) {
	if !isFinite(offset) {
		return 0, precipitating, fmt.Errorf("%w: offset %v", ErrInvalidInput, offset)
	}
	o := reduce(offset)
	n := len(s.points)
	for i := 0; i < 2*n; i++ {
		p := s.points[i%n]
		at := p.Offset + float64(i/n)*CycleLength
		if at < o {
			continue
		}
		c := mustLookup(p.Condition)
		if c.IsPrecipitating() != precipitating {
			return at - o, c.IsPrecipitating(), nil
		}
	}
	return 0, precipitating, nil
}

// UpcomingPrecipitationWindows returns the next count precipitation windows
// starting strictly after offset. Each precipitating breakpoint forms its own
// window ending at the following breakpoint, so a Raining row followed by a
// Drizzling row yields two adjacent windows. Offsets are virtual and strictly
// increasing across cycle wraps.
func (s *Schedule) UpcomingPrecipitationWindows(offset float64, count int) ([]Window, error) {
	if !isFinite(offset) {
		return nil, fmt.Errorf("%w: offset %v", ErrInvalidInput, offset)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: count %d", ErrInvalidInput, count)
	}

	o := reduce(offset)
	n := len(s.points)
	// Every cycle either holds at least one window or none ever will.
	limit := (count + 2) * n

	// Start at the first breakpoint strictly after o.
	start := 0
	for start < n && s.points[start].Offset <= o {
		start++
	}

	virtual := func(k int) float64 {
		return s.points[k%n].Offset + float64(k/n)*CycleLength
	}

	windows := make([]Window, 0, count)
	for k := start; k < start+limit && len(windows) < count; k++ {
		c := mustLookup(s.points[k%n].Condition)
		if !c.IsPrecipitating() {
			continue
		}
		windows = append(windows, Window{
			StartOffset: virtual(k),
			EndOffset:   virtual(k + 1),
			Condition:   c,
		})
	}
	return windows, nil
}

func reduce(offset float64) float64 {
	r := math.Mod(offset, CycleLength)
	if r < 0 {
		r += CycleLength
	}
	// math.Mod of a tiny negative value can round up to exactly CycleLength.
	if r >= CycleLength {
		r = 0
	}
	return r
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
