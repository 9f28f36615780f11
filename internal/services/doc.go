// Package services holds the application services behind the HTTP API.
//
// SegmentService owns the current segmentation snapshot: the result of the
// last pipeline run plus an in-memory analytics store over the same data.
// Refresh builds a new snapshot and swaps it in atomically, so readers never
// see a half built run.
package services
