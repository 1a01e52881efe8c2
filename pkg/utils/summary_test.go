package utils_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/guidryheal-create/trader.exe-sub001/pkg/utils"
)

func TestSummarizeDocument_ShortDocumentIsVerbatimJSON(t *testing.T) {
	// Arrange
	doc := map[string]interface{}{"decision": "hold"}

	// Act
	got := utils.SummarizeDocument(doc, 4000)

	// Assert
	assert.Equal(t, `{"decision":"hold"}`, got)
}

func TestSummarizeDocument_TruncatesWithMarker(t *testing.T) {
	// Arrange
	doc := map[string]interface{}{"blob": strings.Repeat("x", 100)}

	// Act
	got := utils.SummarizeDocument(doc, 20)

	// Assert
	assert.Len(t, got, 20+len(utils.TruncationMarker))
	assert.True(t, strings.HasSuffix(got, utils.TruncationMarker))
}

func TestTruncateBytes_ZeroBudgetDisablesTruncation(t *testing.T) {
	// Arrange
	text := strings.Repeat("y", 50)

	// Act / Assert
	assert.Equal(t, text, utils.TruncateBytes(text, 0))
	assert.Equal(t, text, utils.TruncateBytes(text, 50))
}

func TestTruncateBytes_BacksUpToRuneBoundary(t *testing.T) {
	// Arrange: two-byte runes so an odd byte budget lands mid-rune
	text := strings.Repeat("é", 10)

	// Act
	got := utils.TruncateBytes(text, 5)

	// Assert
	kept := strings.TrimSuffix(got, utils.TruncationMarker)
	assert.True(t, utf8.ValidString(kept))
	assert.Equal(t, strings.Repeat("é", 2), kept)
	assert.True(t, strings.HasSuffix(got, utils.TruncationMarker))
}

func TestGenerateRunID_Format(t *testing.T) {
	// Act
	id := utils.GenerateRunID("cycle")
	other := utils.GenerateRunID("cycle")

	// Assert
	assert.True(t, strings.HasPrefix(id, "cycle-"))
	assert.Len(t, id, len("cycle-")+8)
	assert.NotEqual(t, id, other)
}
