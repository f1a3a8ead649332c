// Package observability defines the tracing, metrics and logging interfaces
// used across chatrelay, plus the attribute and metric names they share.
//
// [Provider] composes [Tracer], [Metrics] and [Logger] into one injectable
// dependency. Handlers attach it to the request context with
// [ContextWithObserver] and the active span with [ContextWithSpan]; lower
// layers such as the upstream HTTP helpers pick them up with
// [ObserverFromContext] and [SpanFromContext] without new parameters.
//
// The slogobs subpackage provides the log/slog backed implementation.
package observability
