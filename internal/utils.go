package internal

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.Trim(part, " \"")
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		clean = []string{name}
	}
	return pgx.Identifier(clean).Sanitize()
}

// normalizeValue converts driver-specific column values into the types the
// application works with.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		// pgx returns uuid columns as raw bytes when scanning into any
		return uuid.UUID(val)
	case []byte:
		// text columns from database/sql drivers
		return string(val)
	default:
		return v
	}
}

// normalizeRow applies normalizeValue to every column in place.
func normalizeRow(row map[string]any) {
	for k, v := range row {
		row[k] = normalizeValue(v)
	}
}
