package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Direction represents the side of a binary option signal
type Direction string

const (
	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"
)

// TrendStrength is the trend-strength filter level chosen by the user
type TrendStrength string

const (
	TrendHigh   TrendStrength = "high"
	TrendMedium TrendStrength = "medium"
	TrendLow    TrendStrength = "low"
)

// Request limits
const (
	MaxSignals      = 50
	MinBacktestDays = 30
	MaxConfidence   = 99.99
)

// Clock is a time of day expressed in minutes since midnight.
type Clock int

var clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock parses a 24-hour "HH:MM" time of day. The hour may be written
// with one or two digits; the minute always takes two.
func ParseClock(s string) (Clock, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return Clock(h*60 + mm), true
}

// Hour returns the hour component.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c Clock) Minute() int { return int(c) % 60 }

// Add returns the clock advanced by the given number of minutes.
// The result is not wrapped at midnight.
func (c Clock) Add(minutes int) Clock { return c + Clock(minutes) }

// On places the clock on the given day, in that day's location.
func (c Clock) On(day time.Time) time.Time {
	y, mo, d := day.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, day.Location()).Add(time.Duration(c) * time.Minute)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalJSON encodes the clock as "HH:MM".
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes an "HH:MM" clock.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, ok := ParseClock(s)
	if !ok {
		return fmt.Errorf("invalid clock %q", s)
	}
	*c = v
	return nil
}

// Request holds the user-supplied parameters for one signal batch.
// Start and End are kept as raw text so that their format can be reported
// back to the user.
type Request struct {
	Market           string        `json:"market" validate:"required"`
	Timeframe        int           `json:"timeframe" default:"1" validate:"oneof=1 5 15"`
	Accuracy         float64       `json:"accuracy" default:"99.99" validate:"gt=0,lte=99.99"`
	Count            int           `json:"count" validate:"min=1,max=50"`
	Start            string        `json:"start_time"`
	End              string        `json:"end_time"`
	DaysAnalyze      int           `json:"days_analyze" validate:"omitempty,min=1,max=30"`
	Martingale       bool          `json:"martingale"`
	NewsFilter       bool          `json:"news_filter" default:"true"`
	VolatilityFilter bool          `json:"volatility_filter" default:"true"`
	TrendStrength    TrendStrength `json:"trend_strength" default:"high" validate:"oneof=high medium low"`
	Backtest         bool          `json:"backtest"`
	BacktestDays     int           `json:"backtest_days" default:"30"`
}

// Filters returns the snapshot of filter toggles attached to each record.
func (r Request) Filters() Filters {
	f := Filters{
		News:          r.NewsFilter,
		Volatility:    r.VolatilityFilter,
		TrendStrength: r.TrendStrength,
	}
	if r.Backtest {
		f.BacktestDays = r.BacktestDays
	}
	return f
}

// TimeframeLabel renders the timeframe as "<n>m".
func (r Request) TimeframeLabel() string {
	return strconv.Itoa(r.Timeframe) + "m"
}

// Filters is the snapshot of filter toggles active when a record was generated.
type Filters struct {
	News          bool          `json:"news"`
	Volatility    bool          `json:"volatility"`
	TrendStrength TrendStrength `json:"trend_strength"`
	BacktestDays  int           `json:"backtest"` // 0 when backtest is off
}

// Record is one generated signal.
type Record struct {
	Index      int       `json:"id"`
	Market     string    `json:"market"`
	Direction  Direction `json:"type"`
	Time       Clock     `json:"time"`
	Confidence float64   `json:"confidence"`
	Timeframe  string    `json:"timeframe"`
	Filters    Filters   `json:"filters"`
}

// Probability renders the confidence as a percentage label, e.g. "99.99%".
func (r Record) Probability() string {
	return FormatPercent(r.Confidence)
}

// Batch is the immutable result of one validate-then-generate cycle.
type Batch struct {
	ID          string    `json:"id"`
	Request     Request   `json:"request"`
	Records     []Record  `json:"records"`
	Confidence  float64   `json:"confidence"`
	Requested   int       `json:"requested"`
	Truncated   bool      `json:"truncated"`
	GeneratedAt time.Time `json:"generated_at"`
}

// FormatPercent formats v with the shortest exact representation and a % suffix.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
