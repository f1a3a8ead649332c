package gemini

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stechy/chatrelay/providers/ai"
)

// TestChatRequest_OmitsEmptySystemInstruction keeps the wire body free of an
// empty systemInstruction object.
func TestChatRequest_OmitsEmptySystemInstruction(t *testing.T) {
	data, err := json.Marshal(chatRequest("", []ai.Message{{Role: ai.RoleUser, Content: "hi"}}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "systemInstruction") {
		t.Errorf("expected no systemInstruction, got %s", data)
	}
	if strings.Contains(string(data), "responseModalities") {
		t.Errorf("chat requests must not ask for images, got %s", data)
	}
}

func TestToImageResult_DefaultsImageMimeType(t *testing.T) {
	response := &generateContentResponse{Candidates: []candidate{{Content: &content{Parts: []part{
		{Text: "  Here you go.  "},
		{InlineData: &inlineData{Data: "AAAA"}},
		{InlineData: &inlineData{MimeType: "image/jpeg", Data: "BBBB"}},
	}}}}}

	result := toImageResult(response, "fallback")
	if result.Content != "Here you go." {
		t.Errorf("unexpected content %q", result.Content)
	}
	if result.ImageURL != "data:image/png;base64,AAAA" {
		t.Errorf("expected the first image with default mime, got %q", result.ImageURL)
	}
}

func TestToImageResult_EmptyResponse(t *testing.T) {
	result := toImageResult(&generateContentResponse{}, "fallback")
	if result.Content != "fallback" || result.ImageURL != "" {
		t.Errorf("unexpected result %+v", result)
	}
}
