// Package relay re-frames a provider's event stream into the OpenAI-style
// Server-Sent Events the chat frontend consumes.
//
// Upstream bytes are read in chunks and split into lines with a carry-over
// buffer, so an event cut by a chunk boundary is reassembled rather than
// lost. Each data payload is decoded by the provider's [ai.StreamDecoder];
// every non-empty text fragment becomes exactly one
//
//	data: {"choices":[{"delta":{"content":"..."},"index":0}]}
//
// event, flushed as soon as it is written. The stream always ends with a
// single "data: [DONE]" unless the upstream read or the downstream write
// fails, in which case it is simply cut.
package relay
