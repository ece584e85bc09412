package domain

import "fmt"

// TimePeriod is a history window token accepted by the upstream API.
type TimePeriod string

const (
	Period24h TimePeriod = "1h" // upstream token for the 24H chart
	Period7d  TimePeriod = "7d"
	Period30d TimePeriod = "30d"
	Period1y  TimePeriod = "1y"
	Period3y  TimePeriod = "3y"
	Period5y  TimePeriod = "5y"

	DefaultPeriod = Period7d
)

var periodLabels = map[TimePeriod]string{
	Period24h: "24H",
	Period7d:  "7D",
	Period30d: "30D",
	Period1y:  "1Y",
	Period3y:  "3Y",
	Period5y:  "5Y",
}

// AllTimePeriods returns the periods in menu order.
func AllTimePeriods() []TimePeriod {
	return []TimePeriod{Period24h, Period7d, Period30d, Period1y, Period3y, Period5y}
}

// Label is the chart button text for the period.
func (p TimePeriod) Label() string {
	if l, ok := periodLabels[p]; ok {
		return l
	}
	return string(p)
}

func (p TimePeriod) Valid() bool {
	_, ok := periodLabels[p]
	return ok
}

// ParseTimePeriod accepts either the API token ("7d") or the label ("7D").
func ParseTimePeriod(s string) (TimePeriod, error) {
	if p := TimePeriod(s); p.Valid() {
		return p, nil
	}
	for p, label := range periodLabels {
		if label == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown time period %q", s)
}
