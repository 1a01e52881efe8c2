package utils

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// TruncationMarker is appended to summaries that exceeded their byte budget.
// The marker must survive through the UI, so it is part of the returned string.
const TruncationMarker = "…(truncated)"

// SummarizeDocument serialises a result document to JSON and truncates it to
// maxBytes. Values that cannot be marshalled fall back to their Go string
// representation. A maxBytes of 0 or less disables truncation.
func SummarizeDocument(doc interface{}, maxBytes int) string {
	var text string
	data, err := json.Marshal(doc)
	if err != nil {
		text = fmt.Sprintf("%v", doc)
	} else {
		text = string(data)
	}
	return TruncateBytes(text, maxBytes)
}

// TruncateBytes caps a string at maxBytes bytes, appending TruncationMarker
// when content was dropped. The cut never splits a multi-byte rune; it backs
// up to the nearest rune boundary instead.
func TruncateBytes(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + TruncationMarker
}
