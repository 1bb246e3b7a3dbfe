// Package rate sums vesting rates over active streams and scales them for display.
package rate

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/lumera-labs/lumera-streams/pkg/types"
	"github.com/lumera-labs/lumera-streams/pkg/vesting"
)

// NetRate is the wallet's net vesting flow in display units per second: active incoming
// streams add their rate, active outgoing streams subtract theirs. Pending, completed
// and malformed streams contribute nothing.
func NetRate(outgoing, incoming []types.StreamRecord, now int64) float64 {
	return sumActive(incoming, now) - sumActive(outgoing, now)
}

func sumActive(records []types.StreamRecord, now int64) float64 {
	var sum float64
	for _, rec := range records {
		if vesting.Validate(rec) != nil {
			continue
		}
		if vesting.Classify(rec, now).State != types.StateActive {
			continue
		}
		sum += vesting.RatePerSecond(rec.TotalAmount, rec.DurationSeconds)
	}
	return sum
}

// Unit is a display time unit for a rate.
type Unit struct {
	Name    string
	Seconds float64
	// step is the multiplier from the previous unit.
	step float64
}

var Units = []Unit{
	{Name: "s", Seconds: 1, step: 1},
	{Name: "min", Seconds: 60, step: 60},
	{Name: "hr", Seconds: 3600, step: 60},
	{Name: "day", Seconds: 86400, step: 24},
	{Name: "week", Seconds: 604800, step: 7},
	{Name: "month", Seconds: 2419200, step: 4},
	{Name: "year", Seconds: 29030400, step: 12},
}

// Scale moves a per-second rate to the smallest unit in which its magnitude is at
// least one, stopping at years. Zero stays per second.
func Scale(perSecond float64) (float64, Unit) {
	v := perSecond
	if v == 0 || math.IsNaN(v) {
		return 0, Units[0]
	}
	for i, u := range Units {
		if i > 0 {
			v *= u.step
		}
		if math.Abs(v) >= 1 || i == len(Units)-1 {
			return v, u
		}
	}
	return v, Units[len(Units)-1]
}

// Format renders a rate like "1,234.5 APT / min" with at most three fraction digits.
func Format(perSecond float64, symbol string) string {
	v, u := Scale(perSecond)
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v %s / %s", number.Decimal(v, number.MaxFractionDigits(3)), symbol, u.Name)
}
