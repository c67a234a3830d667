package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
		ok   bool
	}{
		{"09:00", 540, true},
		{"9:30", 570, true},
		{"00:00", 0, true},
		{"23:59", 1439, true},
		{"9:3", 0, false},
		{"25:00", 0, false},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"", 0, false},
		{" 09:00", 0, false},
		{"09:00:00", 0, false},
		{"ab:cd", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseClock(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseClock(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClock_String(t *testing.T) {
	c, _ := ParseClock("9:05")
	if c.String() != "09:05" {
		t.Errorf("expected 09:05, got %s", c.String())
	}
	if c.Add(7).String() != "09:12" {
		t.Errorf("expected 09:12, got %s", c.Add(7).String())
	}
}

func TestClock_On(t *testing.T) {
	day := time.Date(2024, 3, 15, 18, 42, 0, 0, time.UTC)
	got := Clock(9*60 + 30).On(day)
	want := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestClock_JSON(t *testing.T) {
	data, err := json.Marshal(Clock(615))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"10:15"` {
		t.Errorf("unexpected json: %s", data)
	}

	var c Clock
	if err := json.Unmarshal(data, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c != 615 {
		t.Errorf("expected 615, got %d", c)
	}

	if err := json.Unmarshal([]byte(`"26:00"`), &c); err == nil {
		t.Error("expected error for invalid clock")
	}
}

func TestRequest_Filters(t *testing.T) {
	req := Request{
		NewsFilter:    true,
		TrendStrength: TrendMedium,
		Backtest:      false,
		BacktestDays:  45,
	}

	f := req.Filters()
	if !f.News || f.Volatility {
		t.Errorf("unexpected toggles: %+v", f)
	}
	if f.BacktestDays != 0 {
		t.Errorf("backtest off should snapshot 0 days, got %d", f.BacktestDays)
	}

	req.Backtest = true
	if req.Filters().BacktestDays != 45 {
		t.Errorf("expected 45 backtest days, got %d", req.Filters().BacktestDays)
	}
}

func TestRequest_TimeframeLabel(t *testing.T) {
	if got := (Request{Timeframe: 15}).TimeframeLabel(); got != "15m" {
		t.Errorf("expected 15m, got %s", got)
	}
}

func TestFormatPercent(t *testing.T) {
	tests := map[float64]string{
		99.99:  "99.99%",
		99.911: "99.911%",
		80:     "80%",
	}
	for in, want := range tests {
		if got := FormatPercent(in); got != want {
			t.Errorf("FormatPercent(%v) = %s, want %s", in, got, want)
		}
	}
}
