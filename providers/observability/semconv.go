package observability

// Attribute keys, span names, event names and metric names shared by the
// relay components. Use these instead of literals so logs and metrics line up.

// --- Upstream model attributes ---

const (
	// AttrLLMProvider names the upstream provider ("gemini").
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier sent upstream.
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the upstream method ("generateContent", "streamGenerateContent").
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMFinishReason is the last finish reason reported upstream.
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMStatus is the status string from an upstream error body.
	AttrLLMStatus = "llm.status"

	// AttrLLMTokensPrompt is the prompt token count reported upstream.
	AttrLLMTokensPrompt = "llm.tokens.prompt" // #nosec G101 -- token counts, not credentials

	// AttrLLMTokensCompletion is the candidate token count reported upstream.
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- token counts, not credentials

	// AttrLLMTokensTotal is the total token count reported upstream.
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- token counts, not credentials
)

// --- Chat request attributes ---

const (
	AttrChatMode          = "chat.mode"
	AttrChatMessagesCount = "chat.messages_count"
	AttrChatStreaming     = "chat.streaming"
)

// --- Relay attributes ---

const (
	// AttrRelayFragments is the number of content frames forwarded.
	AttrRelayFragments = "relay.fragments"

	// AttrRelayMalformed is the number of upstream payloads dropped as undecodable.
	AttrRelayMalformed = "relay.malformed"

	// AttrRelayDiscarded is the number of upstream lines read after the sentinel.
	AttrRelayDiscarded = "relay.discarded"

	// AttrRelayBytes is the number of bytes written downstream.
	AttrRelayBytes = "relay.bytes"

	// AttrRelaySentinel records whether [DONE] reached the client.
	AttrRelaySentinel = "relay.sentinel_sent"

	// AttrRelayState is the relay state at the time of logging.
	AttrRelayState = "relay.state"
)

// --- HTTP attributes ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPRoute            = "http.route"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Conversation store attributes ---

const (
	AttrStoreBackend        = "store.backend"
	AttrStoreOperation      = "store.operation"
	AttrStoreConversationID = "store.conversation_id"
	AttrStoreMessageRole    = "store.message.role"
	AttrStoreMessagesCount  = "store.messages_count"
)

// --- General attributes ---

const (
	// AttrError is the error message.
	AttrError = "error"

	// AttrErrorType is the error classification.
	AttrErrorType = "error.type"

	// AttrDuration is the operation duration.
	AttrDuration = "duration"

	// AttrStatus is the span status.
	AttrStatus = "status"

	// AttrStatusDescription is the span status description.
	AttrStatusDescription = "status_description"
)

// --- Span names ---

const (
	SpanRelayRequest   = "relay.request"
	SpanLLMRequest     = "llm.request"
	SpanStoreOperation = "store.operation"
)

// --- Event names ---

const (
	EventLLMRequestStart = "llm.request.start"
	EventLLMRequestEnd   = "llm.request.end"
	EventRelayStarted    = "relay.started"
	EventRelaySentinel   = "relay.sentinel"
	EventRelayFinished   = "relay.finished"
	EventStoreAppend     = "store.append"
)

// --- Metric names ---

const (
	// MetricRelayFragments counts content frames forwarded downstream.
	MetricRelayFragments = "chatrelay.relay.fragments"

	// MetricRelayMalformed counts upstream payloads dropped as undecodable.
	MetricRelayMalformed = "chatrelay.relay.malformed"

	// MetricRequestDuration records whole-request latency in milliseconds.
	MetricRequestDuration = "chatrelay.request.duration"

	// MetricRequestCount counts handled chat requests by mode.
	MetricRequestCount = "chatrelay.request.count"
)
