// Package gemini implements [ai.Provider] for Google's Gemini generative
// language API.
//
// Chat modes use streamGenerateContent with alt=sse; the raw event stream is
// handed back untouched and its payloads are decoded one at a time by
// [Provider.DecodeChunk]. Image generation and editing use the buffered
// generateContent endpoint on the image model with TEXT and IMAGE response
// modalities.
//
// Authentication is the x-goog-api-key header. The key is passed to [New];
// the provider never reads the environment.
package gemini
