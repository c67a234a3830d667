// Package export renders signal batches as downloadable text.
package export

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/newthinker/binsig/internal/core"
)

// DefaultTimeLayout is used when no layout is configured.
const DefaultTimeLayout = "15:04:05"

// Filename is the suggested name for a downloaded batch.
const Filename = "pocketoption-signals.txt"

var referenceDay = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Line renders one record:
//
//	<time> | <market> | <CALL|PUT> | <confidence%> | News Filter: ON | Volatility Filter: ON | Trend Strength: HIGH | Backtest: 30 days
func Line(rec core.Record, layout string) string {
	if layout == "" {
		layout = DefaultTimeLayout
	}

	backtest := "Backtest: OFF"
	if rec.Filters.BacktestDays > 0 {
		backtest = fmt.Sprintf("Backtest: %d days", rec.Filters.BacktestDays)
	}

	return strings.Join([]string{
		rec.Time.On(referenceDay).Format(layout),
		rec.Market,
		string(rec.Direction),
		rec.Probability(),
		"News Filter: " + onOff(rec.Filters.News),
		"Volatility Filter: " + onOff(rec.Filters.Volatility),
		"Trend Strength: " + strings.ToUpper(string(rec.Filters.TrendStrength)),
		backtest,
	}, " | ")
}

// Text renders all records, one per line, without a trailing newline.
func Text(records []core.Record, layout string) string {
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = Line(rec, layout)
	}
	return strings.Join(lines, "\n")
}

// ArchivePath returns the archive key for an exported batch.
func ArchivePath(b *core.Batch) string {
	return path.Join("exports", b.GeneratedAt.UTC().Format("2006/01/02"), b.ID+".txt")
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}
