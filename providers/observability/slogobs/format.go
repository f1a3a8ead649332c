package slogobs

import (
	"os"
	"strings"
)

// Format is the rendering used by Handler.
type Format string

const (
	// FormatCompact is one line per record with attributes as a JSON object:
	//  2026-01-02 10:40:35  INFO relay finished -> {"relay.fragments":3}
	FormatCompact Format = "compact"

	// FormatPretty is one line for the message and one per attribute.
	FormatPretty Format = "pretty"

	// FormatJSON is one JSON object per record, for log aggregation.
	FormatJSON Format = "json"
)

// ParseFormat maps s to a Format, falling back to FormatCompact.
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "pretty":
		return FormatPretty
	case "json":
		return FormatJSON
	default:
		return FormatCompact
	}
}

// FormatFromEnv reads CHATRELAY_LOG_FORMAT, then LOG_FORMAT.
func FormatFromEnv() Format {
	if format := os.Getenv("CHATRELAY_LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	return FormatCompact
}

func (f Format) String() string {
	return string(f)
}
