package domain

import (
	"sort"
	"strings"
)

// SortKey selects the projection's sort column. The values are the wire
// values the dashboard's query string uses.
type SortKey string

const (
	SortMagnitude SortKey = "magnitude"
	SortPlace     SortKey = "endroit"
	SortTime      SortKey = "moment"
)

// Order is the sort direction, again in wire form.
type Order string

const (
	Ascending  Order = "ascendant"
	Descending Order = "descendant"
)

// ParseSortKey maps a query value onto a sort key, falling back to
// magnitude for anything unrecognized.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortMagnitude, SortPlace, SortTime:
		return SortKey(s)
	default:
		return SortMagnitude
	}
}

// ParseOrder maps a query value onto a direction. Anything that is not
// exactly "ascendant" sorts descending, mirroring the dashboard links
// which only ever emit the two canonical values.
func ParseOrder(s string) Order {
	if Order(s) == Ascending {
		return Ascending
	}
	return Descending
}

// Toggle returns the opposite direction.
func (o Order) Toggle() Order {
	if o == Ascending {
		return Descending
	}
	return Ascending
}

// DefaultThreshold hides micro-events and null-magnitude entries.
const DefaultThreshold = 0.1

// Project turns a feed into the ordered event rows the table displays.
// It is a pure function: filter by magnitude (strictly greater than
// threshold), then stable-sort by the requested column. Identical inputs
// always produce identical output, and ties keep feed order.
func Project(feed Feed, key SortKey, order Order, threshold float64) []Event {
	events := make([]Event, 0, len(feed.Features))
	for _, f := range feed.Features {
		e := EventFromFeature(f)
		if e.Magnitude > threshold {
			events = append(events, e)
		}
	}

	var less func(a, b Event) bool
	switch key {
	case SortPlace:
		less = func(a, b Event) bool { return strings.Compare(a.Place, b.Place) < 0 }
	case SortTime:
		less = func(a, b Event) bool { return a.Time.Before(b.Time) }
	default:
		less = func(a, b Event) bool { return a.Magnitude < b.Magnitude }
	}

	sort.SliceStable(events, func(i, j int) bool {
		if order == Descending {
			return less(events[j], events[i])
		}
		return less(events[i], events[j])
	})

	return events
}
