// Package domain models the USGS earthquake feed and the projection of it
// that the dashboard serves.
//
// # Data Source
//
// Events come from the USGS GeoJSON summary feeds, by default the
// "all_day" feed at
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson.
// The document is a GeoJSON FeatureCollection; each feature's "properties"
// object carries the fields the dashboard uses:
//
//	time   epoch milliseconds (UTC) of the event
//	mag    moment magnitude, may be null for unreviewed events
//	place  human-readable location, e.g. "8 km SW of Volcano, Hawaii"
//	url    event page on earthquake.usgs.gov
//
// Any of these may be absent. Missing values project to "Unknown" place,
// zero magnitude, and a zero time. The rest of the document (geometry,
// metadata, the many other property fields) is carried opaquely: the
// service persists the feed bytes in their native JSON shape rather than
// re-serializing a lossy struct, so unknown keys survive a save/load
// round trip.
//
// # Magnitude Threshold
//
// The feed includes micro-events and unreviewed entries with tiny or null
// magnitudes. The projection filters those out with a configurable
// threshold (default 0.1, strictly greater-than), matching what the USGS
// map itself hides by default.
package domain
