// Package weather implements the deterministic in-game weather model used by
// the race bot. The weather at any moment is a pure function of wall-clock
// time: a repeating 384-hour cycle of hand-authored breakpoints advanced by a
// game clock that runs 30 times faster than real time.
//
// Nothing in this package holds mutable state. Every exported function is safe
// to call from any number of goroutines.
package weather

// ConditionID identifies a weather condition in the catalogue.
type ConditionID string

const (
	Clear        ConditionID = "clear"
	Raining      ConditionID = "raining"
	Drizzling    ConditionID = "drizzling"
	Misty        ConditionID = "misty"
	Foggy        ConditionID = "foggy"
	Hazy         ConditionID = "hazy"
	Snowy        ConditionID = "snowy"
	Cloudy       ConditionID = "cloudy"
	MostlyCloudy ConditionID = "mostly_cloudy"
	PartlyCloudy ConditionID = "partly_cloudy"
	MostlyClear  ConditionID = "mostly_clear"
)

// Condition is an immutable catalogue entry describing one weather state and
// how it is displayed.
type Condition struct {
	ID             ConditionID `json:"id"`
	Name           string      `json:"name"`
	Glyph          string      `json:"glyph"`
	DayThumbnail   string      `json:"day_thumbnail"`
	NightThumbnail string      `json:"night_thumbnail"`
}

// IsPrecipitating reports whether the condition belongs to the wet class.
// Only rain and drizzle count; snow is treated as dry for forecasting.
func (c Condition) IsPrecipitating() bool {
	return c.ID == Raining || c.ID == Drizzling
}

// Thumbnail returns the illustration matching the time of day.
func (c Condition) Thumbnail(daytime bool) string {
	if daytime {
		return c.DayThumbnail
	}
	return c.NightThumbnail
}

var catalogue = map[ConditionID]Condition{
	Clear:        {Clear, "Clear", "☀️", "https://i.imgur.com/LerUU1Z.png", "https://i.imgur.com/waFNkp1.png"},
	Raining:      {Raining, "Raining", "🌧️", "https://i.imgur.com/qsAl41k.png", "https://i.imgur.com/jc98A0G.png"},
	Drizzling:    {Drizzling, "Drizzling", "🌦️", "https://i.imgur.com/Qx18aHp.png", "https://i.imgur.com/EWSCz5d.png"},
	Misty:        {Misty, "Misty", "🌁", "https://i.imgur.com/mjZwX2A.png", "https://i.imgur.com/Mh1PDXS.png"},
	Foggy:        {Foggy, "Foggy", "🌫️", "https://i.imgur.com/mjZwX2A.png", "https://i.imgur.com/Mh1PDXS.png"},
	Hazy:         {Hazy, "Hazy", "🌫️", "https://i.imgur.com/mjZwX2A.png", "https://i.imgur.com/Mh1PDXS.png"},
	Snowy:        {Snowy, "Snowy", "❄️", "https://i.imgur.com/WJEjWM6.png", "https://i.imgur.com/1TxfthS.png"},
	Cloudy:       {Cloudy, "Cloudy", "☁️", "https://i.imgur.com/1oMUp2V.png", "https://i.imgur.com/qSOc8XX.png"},
	MostlyCloudy: {MostlyCloudy, "Mostly cloudy", "🌥️", "https://i.imgur.com/aY4EQhE.png", "https://i.imgur.com/2LIbOFC.png"},
	PartlyCloudy: {PartlyCloudy, "Partly cloudy", "⛅", "https://i.imgur.com/aY4EQhE.png", "https://i.imgur.com/2LIbOFC.png"},
	MostlyClear:  {MostlyClear, "Mostly clear", "🌤️", "https://i.imgur.com/aY4EQhE.png", "https://i.imgur.com/2LIbOFC.png"},
}

// Lookup returns the catalogue entry for id.
func Lookup(id ConditionID) (Condition, bool) {
	c, ok := catalogue[id]
	return c, ok
}

// Conditions returns every catalogue entry in a stable order.
func Conditions() []Condition {
	ids := []ConditionID{
		Clear, Raining, Drizzling, Misty, Foggy, Hazy,
		Snowy, Cloudy, MostlyCloudy, PartlyCloudy, MostlyClear,
	}
	out := make([]Condition, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalogue[id])
	}
	return out
}

func mustLookup(id ConditionID) Condition {
	c, ok := catalogue[id]
	if !ok {
		panic("weather: unknown condition " + string(id))
	}
	return c
}
