package finnhub

import "fmt"

// Resolution is the candle resolution value used in API requests.
type Resolution string

// ResolutionMeta holds the API value and sampling width for a Resolution.
type ResolutionMeta struct {
	APIValue string
	Seconds  int64
	Intraday bool
}

const (
	Resolution1Min    Resolution = "1"
	Resolution5Min    Resolution = "5"
	Resolution15Min   Resolution = "15"
	Resolution30Min   Resolution = "30"
	Resolution60Min   Resolution = "60"
	ResolutionDaily   Resolution = "D"
	ResolutionWeekly  Resolution = "W"
	ResolutionMonthly Resolution = "M"
)

var validResolutions = map[Resolution]ResolutionMeta{
	Resolution1Min:    {APIValue: "1", Seconds: 60, Intraday: true},
	Resolution5Min:    {APIValue: "5", Seconds: 300, Intraday: true},
	Resolution15Min:   {APIValue: "15", Seconds: 900, Intraday: true},
	Resolution30Min:   {APIValue: "30", Seconds: 1800, Intraday: true},
	Resolution60Min:   {APIValue: "60", Seconds: 3600, Intraday: true},
	ResolutionDaily:   {APIValue: "D", Seconds: 86400},
	ResolutionWeekly:  {APIValue: "W", Seconds: 7 * 86400},
	ResolutionMonthly: {APIValue: "M", Seconds: 30 * 86400}, // nominal month
}

// ParseResolution parses a string into a valid ResolutionMeta.
func ParseResolution(s string) (ResolutionMeta, error) {
	meta, ok := validResolutions[Resolution(s)]
	if !ok {
		return ResolutionMeta{}, fmt.Errorf("invalid resolution: %s", s)
	}
	return meta, nil
}
