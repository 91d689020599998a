/*
segments.go - Trip segmentation from full-tank fill-ups

PURPOSE:
  Derives consumption segments from a fill-up log. Only a full tank tells us
  how much fuel was burned since the previous full tank, so a segment always
  runs from one full fill-up to the next one.

ALGORITHM:
  1. Stable-sort ascending by date (equal dates keep their input order)
  2. Scan once, remembering the index of the last full fill-up
  3. On each later full fill-up:
     - distance = odometer(current) - odometer(lastFull)
     - if distance > 0, sum liters and total cost over (lastFull, current]
       and emit a segment keyed by the current fill-up
     - advance lastFull whether or not a segment was emitted
  4. Link each segment to its predecessor's L/100km

EXAMPLE:
  2024-01-01  1000 km  full
  2024-01-15  1200 km  10 L  partial
  2024-02-01  1500 km  30 L  full
  => one segment: 500 km, 40 L, 8.0 L/100km

ANOMALIES:
  A full pair whose odometer does not increase (typo, odometer swap) yields
  no segment. Because lastFull still advances, the anomaly only drops that
  one pair; the next pair is computed from the anomalous record onward.
*/
package analytics

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BuildSegments returns the consumption segments of fillUps, ascending by
// date. Input order does not matter and the input slice is not modified.
// Fewer than two full fill-ups yield an empty slice.
func BuildSegments(fillUps []FillUp) []Segment {
	sorted := sortedAscending(fillUps)
	segments := make([]Segment, 0)

	lastFull := -1
	for i, f := range sorted {
		if !f.IsFull {
			continue
		}
		if lastFull >= 0 {
			if seg, ok := buildSegment(sorted[lastFull], sorted[lastFull+1:i+1]); ok {
				segments = append(segments, seg)
			}
		}
		lastFull = i
	}

	for i := 1; i < len(segments); i++ {
		segments[i].PrevLPer100 = Defined(segments[i-1].LPer100)
	}
	return segments
}

// buildSegment computes the segment opening at start and covering span, whose
// last element is the closing full fill-up.
func buildSegment(start FillUp, span []FillUp) (Segment, bool) {
	closing := span[len(span)-1]
	distance := closing.OdometerKm - start.OdometerKm
	if distance <= 0 {
		return Segment{}, false
	}

	liters, cost := decimal.Zero, decimal.Zero
	for _, f := range span {
		liters = liters.Add(f.Liters)
		cost = cost.Add(f.TotalCost)
	}

	km := decimal.NewFromInt(int64(distance))
	return Segment{
		ClosingFillUpID: closing.ID,
		Date:            closing.Date,
		DistanceKm:      distance,
		LitersUsed:      liters,
		FuelCost:        cost,
		LPer100:         liters.Mul(hundred).Div(km),
		CostPer100:      cost.Mul(hundred).Div(km),
	}, true
}

func sortedAscending(fillUps []FillUp) []FillUp {
	sorted := slices.Clone(fillUps)
	slices.SortStableFunc(sorted, func(a, b FillUp) int {
		return a.Date.Compare(b.Date)
	})
	return sorted
}

// SegmentsInRange keeps the segments closed within the last days days before
// now. days <= 0 keeps everything.
func SegmentsInRange(segments []Segment, now time.Time, days int) []Segment {
	if days <= 0 {
		return append([]Segment{}, segments...)
	}
	since := DaysAgo(now, days)
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if !s.Date.Before(since) {
			out = append(out, s)
		}
	}
	return out
}
