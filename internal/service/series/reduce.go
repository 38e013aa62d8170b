package series

import (
	"sort"

	"CoinBoard/internal/domain/models"
	"CoinBoard/pkg/util"
)

// ReduceDaily collapses a raw, possibly irregular series of samples into one
// value per UTC calendar day, keeping the most recent maxDays days.
//
// When several samples land on the same day, the last one in input order wins.
// Upstream payloads arrive in ascending timestamp order, so last-seen is the
// latest sample of that day; the tie-break is input order, not timestamp.
// Malformed samples are skipped. The result is sorted ascending by date and
// never nil, so it serializes as a JSON array.
func ReduceDaily(points []models.RawPoint, maxDays int) []models.DailySample {
	if maxDays < 1 {
		maxDays = 1
	}

	byDay := make(map[string]float64, len(points))
	for _, p := range points {
		if !p.OK {
			continue
		}
		byDay[util.DayKey(p.TimestampMS)] = p.Value
	}

	out := make([]models.DailySample, 0, len(byDay))
	for day, v := range byDay {
		out = append(out, models.DailySample{Date: day, Value: v})
	}

	// ISO date strings sort lexicographically in chronological order.
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	if len(out) > maxDays {
		out = out[len(out)-maxDays:]
	}
	return out
}
