// Package server exposes the relay over HTTP.
//
// POST /chat validates the request, routes it by mode and either streams the
// upstream answer as OpenAI-style Server-Sent Events or returns a buffered
// JSON body for image modes. Failures that happen before the stream starts
// are mapped to JSON error bodies with 400, 402, 429 or 500. Once the 200
// header is committed, a failing stream just ends without the [DONE]
// sentinel.
//
// The /conversations routes serve the conversation store. They trust the
// X-User-Id header set by the fronting auth layer.
package server
