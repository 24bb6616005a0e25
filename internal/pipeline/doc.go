// Package pipeline orchestrates input discovery, per-file converter
// dispatch over a fixed-size worker pool, and batch summary reporting.
//
// A run is described by a [Request], built once by [NewRequest] and
// read-only afterwards. [Run] fans the request's tasks out to at most
// Request.Workers concurrent converter processes and returns [RunStats].
// Per-file failures are logged and counted; they never stop the batch.
package pipeline
