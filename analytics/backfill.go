/*
backfill.go - Pagination-safe segment resolution

PURPOSE:
  The fill-up list is paged newest-first with a cursor. A page alone cannot
  price its oldest segment: the opening full tank and any partial fills
  before it usually sit on an older page. ResolvePagedSegments fetches just
  enough older history to make every segment it returns identical to what
  BuildSegments would produce over the whole, unpaged log.

ALGORITHM:
  1. Find the oldest full fill-up in the page (the anchor). None => nothing
     in this page can close a segment correctly, return empty.
  2. Fetch at most cap records dated at or before the anchor, newest first.
  3. Merge page + fetched records by id, sort ascending, BuildSegments.
  4. Keep only segments closed by a fill-up of the page.

CAP POLICY:
  The cap bounds the worst-case cost of step 2. If the previous full tank is
  older than the cap, it is simply not in the merged set, so no segment is
  built for the anchor: the page's oldest segment is omitted instead of being
  computed from a wrong starting point. Every other page segment has its
  opening full tank inside the page and is unaffected.

  When the cap reaches the previous full tank but not the one before it, the
  oldest page segment is built with PrevLPer100 undefined, where the unpaged
  computation has a value. Its distance, liters, cost and L/100 still match;
  only the comparison with the previous segment is missing.

TIES:
  The fetch is keyed on the anchor's date, so it also returns records sharing
  that timestamp but stored after the anchor. Those sit on a newer page and
  belong to the anchor's successor, so everything ahead of the anchor in the
  fetched batch is dropped before merging. They still count against the cap.
  Equivalence with the unpaged computation holds as long as records sharing
  an exact timestamp are returned by storage in a consistent order.
*/
package analytics

import (
	"context"
	"slices"
	"time"
)

// DefaultBackfillCap is the number of older fill-ups fetched to find the
// previous full tank of a page's oldest segment. Callers pass it explicitly.
const DefaultBackfillCap = 200

// HistoryFetcher loads fill-ups dated at or before `before`, newest first,
// returning at most limit records. Records sharing a timestamp must come back
// in the same order the paging collaborator uses.
type HistoryFetcher interface {
	FillUpsOlderThanOrEqual(ctx context.Context, before time.Time, limit int) ([]FillUp, error)
}

// HistoryFetcherFunc adapts a function to HistoryFetcher.
type HistoryFetcherFunc func(ctx context.Context, before time.Time, limit int) ([]FillUp, error)

func (f HistoryFetcherFunc) FillUpsOlderThanOrEqual(ctx context.Context, before time.Time, limit int) ([]FillUp, error) {
	return f(ctx, before, limit)
}

// ResolvePagedSegments returns the segments closed by fill-ups of page, each
// computed over enough history to be correct. page is one cursor page as the
// paging collaborator returns it, newest first. A backfillCap <= 0 or a nil
// fetch disables backfill, which omits the segment closed by the page's
// oldest full fill-up.
//
// A fetch failure fails the whole call; no partial result is returned.
func ResolvePagedSegments(ctx context.Context, page []FillUp, fetch HistoryFetcher, backfillCap int) ([]Segment, error) {
	anchor, ok := oldestFull(page)
	if !ok {
		return []Segment{}, nil
	}

	merged := make([]FillUp, 0, len(page))
	for i := len(page) - 1; i >= 0; i-- {
		merged = append(merged, page[i])
	}
	if fetch != nil && backfillCap > 0 {
		older, err := fetch.FillUpsOlderThanOrEqual(ctx, anchor.Date, backfillCap)
		if err != nil {
			return nil, &BackfillError{Anchor: anchor.Date, Cap: backfillCap, Err: err}
		}
		merged = mergeByID(merged, older, anchor)
	}

	inPage := make(map[string]struct{}, len(page))
	for _, f := range page {
		inPage[f.ID] = struct{}{}
	}

	all := BuildSegments(merged)
	segments := make([]Segment, 0, len(all))
	for _, s := range all {
		if _, ok := inPage[s.ClosingFillUpID]; ok {
			segments = append(segments, s)
		}
	}
	return segments, nil
}

// oldestFull walks the page from its oldest end. Among full fill-ups sharing
// a timestamp it picks the one stored first.
func oldestFull(page []FillUp) (FillUp, bool) {
	for i := len(page) - 1; i >= 0; i-- {
		if page[i].IsFull {
			return page[i], true
		}
	}
	return FillUp{}, false
}

// mergeByID prepends the older records not already present. Both batches
// arrive newest first and are reversed, so records sharing a timestamp keep
// ascending storage order. Anything the fetcher returned ahead of the anchor
// is newer than it: either dated past it, or tied with it and stored later.
func mergeByID(page, older []FillUp, anchor FillUp) []FillUp {
	// Without the anchor in the batch, a record tied with it cannot be placed.
	cutoff := anchor.Date.Add(-time.Nanosecond)
	if i := slices.IndexFunc(older, func(f FillUp) bool { return f.ID == anchor.ID }); i >= 0 {
		older = older[i:]
		cutoff = anchor.Date
	}

	seen := make(map[string]struct{}, len(page)+len(older))
	for _, f := range page {
		seen[f.ID] = struct{}{}
	}
	merged := make([]FillUp, 0, len(page)+len(older))
	for i := len(older) - 1; i >= 0; i-- {
		f := older[i]
		if f.Date.After(cutoff) {
			continue
		}
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}
		merged = append(merged, f)
	}
	return append(merged, page...)
}
