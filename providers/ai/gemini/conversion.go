package gemini

import (
	"strings"

	"github.com/stechy/chatrelay/providers/ai"
)

// Fallback texts used when the image model answers with an image only.
const (
	imageFallbackText = "I've created an image description for you."
	editFallbackText  = "I've analyzed and processed the image for you."
)

var (
	chatGenerationConfig = generationConfig{
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 8192,
	}

	imageGenerationConfig = generationConfig{
		Temperature:        0.9,
		TopK:               40,
		TopP:               0.95,
		MaxOutputTokens:    1024,
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	editGenerationConfig = generationConfig{
		Temperature:        0.7,
		TopK:               40,
		TopP:               0.95,
		MaxOutputTokens:    2048,
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
)

// chatSafetySettings disables blocking for the four adjustable harm
// categories, matching what the frontend has always been served.
var chatSafetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

// chatRequest builds the streaming request for the chat-style modes.
func chatRequest(systemPrompt string, messages []ai.Message) generateContentRequest {
	config := chatGenerationConfig
	request := generateContentRequest{
		Contents:         messagesToContents(messages),
		GenerationConfig: &config,
		SafetySettings:   chatSafetySettings,
	}
	if systemPrompt != "" {
		request.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return request
}

func imageRequest(prompt string) generateContentRequest {
	config := imageGenerationConfig
	return generateContentRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: &config,
	}
}

func editRequest(prompt string, image ai.DataURL) generateContentRequest {
	config := editGenerationConfig
	return generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{MimeType: image.MimeType, Data: image.Data}},
			},
		}},
		GenerationConfig: &config,
	}
}

// messagesToContents maps client roles onto Gemini's: assistant turns are
// "model", everything else is "user".
func messagesToContents(messages []ai.Message) []content {
	contents := make([]content, 0, len(messages))
	for _, message := range messages {
		role := "user"
		if message.Role == ai.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: message.Content}}})
	}
	return contents
}

// candidateText concatenates the visible text parts of the first candidate.
func candidateText(response *generateContentResponse) string {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ""
	}

	parts := response.Candidates[0].Content.Parts
	if len(parts) == 1 && !parts[0].Thought {
		return parts[0].Text
	}

	var builder strings.Builder
	for _, p := range parts {
		if p.Thought {
			continue
		}
		builder.WriteString(p.Text)
	}
	return builder.String()
}

// candidateImage returns the first inline image of the first candidate.
func candidateImage(response *generateContentResponse) (ai.DataURL, bool) {
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return ai.DataURL{}, false
	}
	for _, p := range response.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			mimeType := p.InlineData.MimeType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return ai.DataURL{MimeType: mimeType, Data: p.InlineData.Data}, true
		}
	}
	return ai.DataURL{}, false
}

// toImageResult extracts the description and the generated image, falling
// back to fallbackText when the model returned no text.
func toImageResult(response *generateContentResponse, fallbackText string) *ai.ImageResult {
	result := &ai.ImageResult{Content: strings.TrimSpace(candidateText(response))}
	if result.Content == "" {
		result.Content = fallbackText
	}
	if image, ok := candidateImage(response); ok {
		result.ImageURL = image.String()
	}
	return result
}

func toUsage(metadata *usageMetadata) *ai.Usage {
	if metadata == nil {
		return nil
	}
	return &ai.Usage{
		PromptTokens:     metadata.PromptTokenCount,
		CompletionTokens: metadata.CandidatesTokenCount,
		TotalTokens:      metadata.TotalTokenCount,
	}
}
