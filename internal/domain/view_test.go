package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feature(place string, mag float64, at time.Time) Feature {
	ts := at.UnixMilli()
	return Feature{Properties: Properties{
		Mag:   &mag,
		Time:  &ts,
		Place: place,
	}}
}

func places(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Place
	}
	return out
}

func TestProject_ThresholdFilter(t *testing.T) {
	base := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)
	feed := Feed{Features: []Feature{
		feature("kept", 0.2, base),
		feature("at threshold", 0.1, base),
		feature("below", 0.05, base),
		{}, // null magnitude
	}}

	events := Project(feed, SortMagnitude, Descending, DefaultThreshold)

	require.Len(t, events, 1)
	assert.Equal(t, "kept", events[0].Place)
	for _, e := range events {
		assert.Greater(t, e.Magnitude, DefaultThreshold)
	}
}

func TestProject_SortByPlace(t *testing.T) {
	base := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)
	feed := Feed{Features: []Feature{
		feature("B", 1.0, base),
		feature("A", 2.0, base),
		feature("C", 3.0, base),
	}}

	asc := Project(feed, SortPlace, Ascending, DefaultThreshold)
	assert.Equal(t, []string{"A", "B", "C"}, places(asc))

	desc := Project(feed, SortPlace, Descending, DefaultThreshold)
	assert.Equal(t, []string{"C", "B", "A"}, places(desc))
}

func TestProject_SortByMagnitude(t *testing.T) {
	base := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)
	feed := Feed{Features: []Feature{
		feature("mid", 2.5, base),
		feature("high", 6.1, base),
		feature("low", 0.9, base),
	}}

	events := Project(feed, SortMagnitude, Descending, DefaultThreshold)
	assert.Equal(t, []string{"high", "mid", "low"}, places(events))
}

func TestProject_SortByTime(t *testing.T) {
	base := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)
	feed := Feed{Features: []Feature{
		feature("second", 1.0, base.Add(time.Hour)),
		feature("first", 1.0, base),
		feature("third", 1.0, base.Add(2*time.Hour)),
	}}

	events := Project(feed, SortTime, Ascending, DefaultThreshold)
	assert.Equal(t, []string{"first", "second", "third"}, places(events))
}

func TestProject_UnknownKeyFallsBackToMagnitude(t *testing.T) {
	base := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)
	feed := Feed{Features: []Feature{
		feature("small", 1.0, base),
		feature("big", 5.0, base),
	}}

	events := Project(feed, ParseSortKey("bogus"), Descending, DefaultThreshold)
	assert.Equal(t, []string{"big", "small"}, places(events))
}

func TestProject_StableOnTies(t *testing.T) {
	base := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)
	feed := Feed{Features: []Feature{
		feature("first in feed", 2.0, base),
		feature("second in feed", 2.0, base),
		feature("third in feed", 2.0, base),
	}}

	// Equal magnitudes keep feed order in both directions.
	for _, order := range []Order{Ascending, Descending} {
		events := Project(feed, SortMagnitude, order, DefaultThreshold)
		assert.Equal(t, []string{"first in feed", "second in feed", "third in feed"}, places(events), "order %s", order)
	}
}

func TestProject_Deterministic(t *testing.T) {
	base := time.Date(2024, 4, 26, 12, 0, 0, 0, time.UTC)
	feed := Feed{Features: []Feature{
		feature("B", 1.0, base.Add(time.Minute)),
		feature("A", 3.0, base),
		feature("C", 2.0, base.Add(2*time.Minute)),
	}}

	first := Project(feed, SortTime, Descending, DefaultThreshold)
	second := Project(feed, SortTime, Descending, DefaultThreshold)
	assert.Equal(t, first, second)
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortPlace, ParseSortKey("endroit"))
	assert.Equal(t, SortTime, ParseSortKey("moment"))
	assert.Equal(t, SortMagnitude, ParseSortKey("magnitude"))
	assert.Equal(t, SortMagnitude, ParseSortKey(""))
	assert.Equal(t, SortMagnitude, ParseSortKey("nope"))
}

func TestParseOrderAndToggle(t *testing.T) {
	assert.Equal(t, Ascending, ParseOrder("ascendant"))
	assert.Equal(t, Descending, ParseOrder("descendant"))
	assert.Equal(t, Descending, ParseOrder("anything else"))

	assert.Equal(t, Descending, Ascending.Toggle())
	assert.Equal(t, Ascending, Descending.Toggle())
}
