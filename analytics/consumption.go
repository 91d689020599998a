package analytics

import "github.com/shopspring/decimal"

// ConsumptionSummary condenses a segment series into the headline figures
// shown next to the consumption chart. Averages are plain means of the
// per-segment L/100km, not distance-weighted.
type ConsumptionSummary struct {
	Count          int
	Latest         Number
	Avg3           Number
	Avg6           Number
	Lifetime       Number
	Min            Number
	Max            Number
	CostPer100Avg3 Number
}

// SummarizeConsumption expects segments ascending by date, as BuildSegments
// returns them. An empty series yields all Undefined.
func SummarizeConsumption(segments []Segment) ConsumptionSummary {
	lPer100 := make([]decimal.Decimal, len(segments))
	costPer100 := make([]decimal.Decimal, len(segments))
	for i, s := range segments {
		lPer100[i] = s.LPer100
		costPer100[i] = s.CostPer100
	}

	summary := ConsumptionSummary{
		Count:          len(segments),
		Avg3:           average(last(lPer100, 3)),
		Avg6:           average(last(lPer100, 6)),
		Lifetime:       average(lPer100),
		CostPer100Avg3: average(last(costPer100, 3)),
	}
	if len(lPer100) > 0 {
		summary.Latest = Defined(lPer100[len(lPer100)-1])
		summary.Min = Defined(decimal.Min(lPer100[0], lPer100[1:]...))
		summary.Max = Defined(decimal.Max(lPer100[0], lPer100[1:]...))
	}
	return summary
}

func last(values []decimal.Decimal, n int) []decimal.Decimal {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
