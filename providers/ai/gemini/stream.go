package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/stechy/chatrelay/providers/ai"
)

// DecodeChunk decodes one SSE data payload of streamGenerateContent. Each
// event carries only the text generated since the previous one, so the text
// is returned as is. Thought parts are skipped.
func (p *Provider) DecodeChunk(payload []byte) (ai.StreamChunk, error) {
	var response generateContentResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return ai.StreamChunk{}, fmt.Errorf("decode gemini stream event: %w", err)
	}

	chunk := ai.StreamChunk{
		Text:  candidateText(&response),
		Usage: toUsage(response.UsageMetadata),
	}
	if len(response.Candidates) > 0 {
		chunk.FinishReason = response.Candidates[0].FinishReason
	}
	return chunk, nil
}
