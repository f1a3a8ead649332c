// Package utils provides the low-level HTTP helpers used to talk to the
// upstream model API: [DoPostSync] for buffered JSON round-trips,
// [DoPostStream] for responses read incrementally, and [LineSplitter], which
// reassembles lines across arbitrary chunk boundaries. [ErrorMessage] pulls
// the provider message out of an upstream error body for logging.
package utils
