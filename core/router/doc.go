// Package router dispatches a validated chat request to the upstream call
// shape its mode needs. Streaming modes return the provider's raw event
// stream; image modes return a buffered result.
package router
