// Package domain defines the types and interfaces for the venue catalog service
package domain

import "encoding/json"

// OutputFilename is the reserved name of the consolidated catalog file.
// It is excluded from input consideration even when present in the venues dir
const OutputFilename = "consolidated-all-venues.json"

// UnknownCity buckets venues whose city_id is absent or empty
const UnknownCity = "unknown"

// Record is one venue as found in a source file. Raw preserves the original
// object bytes (and therefore field order); Name and CityID are extracted
// only for identity and aggregation
type Record struct {
	Name   string
	CityID string
	Raw    json.RawMessage
}

// Key is the deduplication identity: name and city id joined with an underscore.
// Two records with the same key are the same venue; the first seen wins
func (r Record) Key() string { return r.Name + "_" + r.CityID }

// City returns the city bucket for aggregation, mapping empty to UnknownCity
func (r Record) City() string {
	if r.CityID == "" {
		return UnknownCity
	}
	return r.CityID
}

// CityCount is one row of the per-city aggregate
type CityCount struct {
	CityID string `json:"city_id"`
	Venues int    `json:"venues"`
}

// FileFailure records one skipped input file and why
type FileFailure struct {
	File string
	Err  error
}

// Result is the outcome of one consolidation pass
type Result struct {
	// Records are the unique venues in first-seen order, files processed in
	// lexicographic filename order
	Records []Record
	// Counts is the per-city aggregate, descending by venue count
	Counts []CityCount
	// Failures lists input files that were skipped entirely
	Failures []FileFailure
}

// Total is the number of unique venues
func (r *Result) Total() int { return len(r.Records) }

// ListQuery filters and pages the imported venue list
type ListQuery struct {
	CityID string
	Limit  int
	Offset int
}
