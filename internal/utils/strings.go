package utils

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
)

const (
	// DefaultMaxStringLength is the default maximum length for truncated strings
	DefaultMaxStringLength = 500
)

// TruncateString shortens s to at most maxLen bytes, appending a suffix that
// records the original total length so readers of the log know data was
// omitted. If maxLen is zero or negative, DefaultMaxStringLength is used.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// TruncateStringDefault truncates a string using DefaultMaxStringLength
func TruncateStringDefault(s string) string {
	return TruncateString(s, DefaultMaxStringLength)
}

// errorEnvelope is the error body shape used by Google APIs:
// {"error":{"code":429,"message":"...","status":"RESOURCE_EXHAUSTED"}}
type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ErrorMessage extracts the provider's human-readable message and status
// string from an upstream error body. Error bodies are capped before they
// reach here, so a body cut mid-object is repaired before a second decode
// attempt. Both return values are empty when nothing usable is found.
func ErrorMessage(body []byte) (message, status string) {
	if len(body) == 0 {
		return "", ""
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(body))
		if repairErr != nil {
			return "", ""
		}
		if err := json.Unmarshal([]byte(repaired), &envelope); err != nil {
			return "", ""
		}
	}

	if envelope.Error == nil {
		return "", ""
	}
	return envelope.Error.Message, envelope.Error.Status
}
