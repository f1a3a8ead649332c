package gemini

/*
	GEMINI API - REQUEST TYPES
*/

// generateContentRequest is the body of generateContent and streamGenerateContent.
type generateContentRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []safetySetting   `json:"safetySettings,omitempty"`
}

// content is a role plus its parts. Role is "user" or "model"; the system
// instruction carries no role.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// part is either text or inline binary data.
type part struct {
	Text       string      `json:"text,omitempty"`
	Thought    bool        `json:"thought,omitempty"` // thinking summary, never shown to the user
	InlineData *inlineData `json:"inlineData,omitempty"`
}

// inlineData is base64 binary data such as an image.
type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// generationConfig holds sampling parameters. Zero values are omitted.
type generationConfig struct {
	Temperature        float64  `json:"temperature,omitempty"`
	TopK               int      `json:"topK,omitempty"`
	TopP               float64  `json:"topP,omitempty"`
	MaxOutputTokens    int      `json:"maxOutputTokens,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

/*
	GEMINI API - RESPONSE TYPES
*/

// generateContentResponse is both the buffered response and a single event of
// the SSE stream.
type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates,omitempty"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *usageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

type candidate struct {
	Content      *content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Index        int      `json:"index,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
	ThoughtsTokenCount   int `json:"thoughtsTokenCount,omitempty"`
}
