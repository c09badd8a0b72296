package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Feed is the parsed view of one USGS GeoJSON document. Only the fields
// the dashboard needs are decoded; the full document bytes are kept
// alongside in Snapshot.Raw for lossless persistence.
type Feed struct {
	Features []Feature `json:"features"`
}

// Feature is one event entry in the feed.
type Feature struct {
	Properties Properties `json:"properties"`
}

// Properties holds the subset of USGS event properties the dashboard
// renders. Pointer fields distinguish absent/null values from zero.
type Properties struct {
	Time  *int64   `json:"time"`
	Mag   *float64 `json:"mag"`
	Place string   `json:"place"`
	URL   string   `json:"url"`
}

// ParseFeed decodes a feed document. Callers classify the returned error
// (fetch → malformed response, store → corrupt data). A document without
// a "features" key parses as an empty feed; the USGS contract does not
// guarantee the key's presence and an empty day is not an error.
func ParseFeed(data []byte) (Feed, error) {
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return Feed{}, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// Event is one display-ready row derived from a feature.
type Event struct {
	Place     string
	Magnitude float64
	Time      time.Time
	DetailURL string
}

// EventFromFeature extracts the display fields from one feature,
// substituting defaults for anything the feed omitted: "Unknown" place,
// zero magnitude, zero time.
func EventFromFeature(f Feature) Event {
	e := Event{
		Place:     "Unknown",
		DetailURL: f.Properties.URL,
	}
	if f.Properties.Place != "" {
		e.Place = f.Properties.Place
	}
	if f.Properties.Mag != nil {
		e.Magnitude = *f.Properties.Mag
	}
	if f.Properties.Time != nil {
		e.Time = time.UnixMilli(*f.Properties.Time).UTC()
	}
	return e
}

// Snapshot is one fully-formed dataset: the parsed feed, the exact bytes
// it came from, and freshness metadata. Snapshots are immutable once
// built; the coordinator replaces the current one atomically and readers
// never see a partially-updated state.
type Snapshot struct {
	Feed      Feed
	Raw       []byte
	FetchedAt time.Time
	Valid     bool
}

// EmptySnapshot is the state served before any fetch has succeeded and
// no usable file exists on disk.
func EmptySnapshot() *Snapshot {
	return &Snapshot{Raw: []byte(`{"features": []}`)}
}
