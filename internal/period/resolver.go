// Package period turns a named chart period or an explicit date range into the
// concrete window used to request a price series.
package period

import (
	"fmt"
	"time"

	"stockchart/internal/model"
	"stockchart/pkg/finnhub"
)

const secondsPerDay = 24 * 60 * 60

type entry struct {
	label      string
	resolution finnhub.Resolution
	days       int // window width counted back from the anchor; 0 for YTD
}

// table is ordered the way the period buttons are presented.
var table = []entry{
	{model.Label1D, finnhub.Resolution5Min, 1},
	{model.Label5D, finnhub.Resolution15Min, 5},
	{model.Label1M, finnhub.Resolution30Min, 30},
	{model.Label6M, finnhub.ResolutionDaily, 180},
	{model.LabelYTD, finnhub.ResolutionDaily, 0},
	{model.Label1Y, finnhub.ResolutionDaily, 365},
	{model.Label5Y, finnhub.ResolutionWeekly, 5 * 365},
}

// Labels returns the named periods in presentation order.
func Labels() []string {
	out := make([]string, len(table))
	for i, e := range table {
		out[i] = e.label
	}
	return out
}

// Anchor returns the "to" end of every named window: now, moved back to
// Friday when now falls on a weekend. Holidays are not accounted for.
func Anchor(now time.Time) time.Time {
	switch now.Weekday() {
	case time.Saturday:
		return now.AddDate(0, 0, -1)
	case time.Sunday:
		return now.AddDate(0, 0, -2)
	default:
		return now
	}
}

// Resolve returns the window for a named period anchored at now.
func Resolve(label string, now time.Time) (model.TimeWindow, error) {
	to := Anchor(now)
	for _, e := range table {
		if e.label != label {
			continue
		}
		from := to.AddDate(0, 0, -e.days)
		if e.label == model.LabelYTD {
			from = time.Date(to.Year(), time.January, 1, 0, 0, 0, 0, to.Location())
		}
		return model.TimeWindow{
			From:       from.Unix(),
			To:         to.Unix(),
			Resolution: string(e.resolution),
			Label:      e.label,
		}, nil
	}
	return model.TimeWindow{}, fmt.Errorf("unknown time period: %q", label)
}

// Default is the window every session starts with: the most recent trading
// day at 5-minute resolution.
func Default(now time.Time) model.TimeWindow {
	w, _ := Resolve(model.Label1D, now)
	return w
}

// ResolveRange returns a custom window for an explicit date range. The
// resolution follows the inclusive span in days: up to a week gets 5-minute
// bars, up to 30 days 30-minute bars, anything longer daily bars.
func ResolveRange(from, to time.Time) (model.TimeWindow, error) {
	if to.Before(from) {
		return model.TimeWindow{}, fmt.Errorf("invalid range: to %s is before from %s",
			to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	span := (to.Unix()-from.Unix())/secondsPerDay + 1

	var res finnhub.Resolution
	switch {
	case span <= 7:
		res = finnhub.Resolution5Min
	case span <= 30:
		res = finnhub.Resolution30Min
	default:
		res = finnhub.ResolutionDaily
	}

	return model.TimeWindow{
		From:       from.Unix(),
		To:         to.Unix(),
		Resolution: string(res),
		Label:      model.LabelCustom,
	}, nil
}
