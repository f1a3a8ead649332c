// Package slogobs implements observability.Provider on top of log/slog.
//
// Spans, span events and metric updates are emitted as DEBUG records; the
// handler renders records in compact, pretty or JSON form. Output goes to
// stdout by default or to a size-rotated file via [WithFile]. Format and
// level default to the CHATRELAY_LOG_FORMAT and CHATRELAY_LOG_LEVEL
// environment variables.
package slogobs
