package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateRunID creates a standardized, human-readable run ID.
// Format: {operation}-{8charHexUUID}
//
// Example:
//   - Input: operation="cycle"
//   - Output: "cycle-a3f8e2b1"
//
// The generated IDs are:
//   - Human-readable with clear operation type
//   - Globally unique via UUID suffix
//   - Consistent across all run types (workforce nodes, scans, hints)
func GenerateRunID(operation string) string {
	return operation + "-" + generateShortUUID()
}

// generateShortUUID creates an 8-character hex string from a UUID.
// This provides sufficient uniqueness while keeping IDs compact.
func generateShortUUID() string {
	id := uuid.New()
	// Remove hyphens and take first 8 characters
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
