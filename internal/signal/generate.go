package signal

import (
	"github.com/newthinker/binsig/internal/core"
)

// Generate materializes the signal sequence for a request that already
// passed Validate. Records start at the window start and are spaced by
// fresh random gaps. Generation stops early, without error, once the next
// time would fall past the window end, so the result may hold fewer than
// req.Count records. Behavior on an unvalidated request is unspecified.
func Generate(req core.Request, rnd Rand) []core.Record {
	start, _ := core.ParseClock(req.Start)
	end, _ := core.ParseClock(req.End)

	confidence := Confidence(req)
	filters := req.Filters()
	timeframe := req.TimeframeLabel()

	records := make([]core.Record, 0, req.Count)
	current := start
	for i := 1; i <= req.Count; i++ {
		dir := core.DirectionPut
		if drawDirection(rnd) {
			dir = core.DirectionCall
		}

		records = append(records, core.Record{
			Index:      i,
			Market:     req.Market,
			Direction:  dir,
			Time:       current,
			Confidence: confidence,
			Timeframe:  timeframe,
			Filters:    filters,
		})

		if i < req.Count {
			current = current.Add(Gap(rnd))
			if current > end {
				break
			}
		}
	}

	return records
}
