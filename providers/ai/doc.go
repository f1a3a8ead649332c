// Package ai holds the provider-agnostic request and result types of the chat
// relay and the error taxonomy shared by every layer above the upstream
// provider.
//
// A [ChatRequest] names its [Mode], a closed set decoded from the request
// body. Streaming modes hand back the provider's raw event stream together
// with a [StreamDecoder] for its payloads; image modes return a buffered
// [ImageResult]. Failures wrap one of the sentinel errors ([ErrConfiguration],
// [ErrInvalidRequest], [ErrRateLimited], [ErrQuotaExceeded],
// [ErrUpstreamFailure]) so callers classify them with errors.Is.
package ai
