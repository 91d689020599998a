package analytics

import "time"

// VehicleSummary is everything the vehicle detail view shows about one
// vehicle, computed in a single pass over its full history.
type VehicleSummary struct {
	VehicleID   string
	AsOf        time.Time
	Segments    []Segment
	Costs       CostSummary
	Consumption ConsumptionSummary
	Inspection  InspectionStatus
}

// Summarize is the one composition point of the engine: segmentation, cost
// aggregation, consumption figures and inspection status over the same
// records and the same now. rangeDays limits the segments returned and the
// consumption figures (0 = all); cost metrics always use their own windows.
func Summarize(v Vehicle, fillUps []FillUp, expenses []Expense, now time.Time, rangeDays int) VehicleSummary {
	segments := BuildSegments(fillUps)
	visible := SegmentsInRange(segments, now, rangeDays)

	return VehicleSummary{
		VehicleID:   v.ID,
		AsOf:        now,
		Segments:    visible,
		Costs:       AggregateCosts(segments, expenses, fillUps, now),
		Consumption: SummarizeConsumption(visible),
		Inspection:  ComputeInspectionStatus(v.InspectionFields(), expenses, now),
	}
}
