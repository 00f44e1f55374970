// Package station holds the ordered catalog of manufacturing stations a
// barrel passes through.
//
// A Registry is immutable once built. Stations are ordered by sequence
// number, and NextAfter defines the pipeline: the station with the smallest
// sequence number strictly greater than the current one, or none when the
// current station is the last.
package station
