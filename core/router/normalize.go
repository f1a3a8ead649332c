package router

import (
	"context"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/stechy/chatrelay/providers/ai"
	"github.com/stechy/chatrelay/providers/observability"
)

// normalizeForSummary converts user messages that are HTML documents or
// fragments into Markdown, so pasted web pages are summarized by their text
// rather than their markup. Messages that fail to convert are left as is.
// The input slice is not modified.
func normalizeForSummary(ctx context.Context, messages []ai.Message) []ai.Message {
	observer := observability.ObserverFromContext(ctx)

	normalized := make([]ai.Message, len(messages))
	copy(normalized, messages)

	for i, message := range normalized {
		if message.Role != ai.RoleUser || !looksLikeHTML(message.Content) {
			continue
		}

		markdown, err := htmltomarkdown.ConvertString(message.Content)
		if err != nil {
			observer.Debug(ctx, "Keeping HTML message unconverted",
				observability.Int("message.index", i),
				observability.Error(err),
			)
			continue
		}
		if markdown = strings.TrimSpace(markdown); markdown != "" {
			normalized[i].Content = markdown
		}
	}
	return normalized
}

// looksLikeHTML reports whether s is plausibly an HTML document or fragment
// rather than prose that mentions a tag.
func looksLikeHTML(s string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(trimmed, "<!doctype html") || strings.HasPrefix(trimmed, "<html") {
		return true
	}
	return strings.HasPrefix(trimmed, "<") && strings.HasSuffix(trimmed, ">") && strings.Contains(trimmed, "</")
}
