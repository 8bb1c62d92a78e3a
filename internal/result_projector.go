package internal

import (
	"github.com/lychee-technology/legacybridge"
	"go.uber.org/zap"
)

// ResultProjector renames legacy result columns to application fields.
type ResultProjector struct {
	registry legacybridge.SchemaRegistry
}

// NewResultProjector creates a projector over registry.
func NewResultProjector(registry legacybridge.SchemaRegistry) *ResultProjector {
	return &ResultProjector{registry: registry}
}

// Project converts rows of table. Rows of tables without field aliases are
// returned as-is; otherwise every row is copied into a new map and the input
// is left untouched.
func (p *ResultProjector) Project(rows []legacybridge.Row, table string) []legacybridge.Row {
	fields := p.registry.FieldMap(table)
	if fields.IsEmpty() || rows == nil {
		return rows
	}

	projected := make([]legacybridge.Row, len(rows))
	collisions := 0
	for i, row := range rows {
		var dropped int
		projected[i], dropped = projectRow(row, fields)
		collisions += dropped
	}

	if collisions > 0 {
		zap.S().Debugw("passthrough columns shadowed by mapped fields",
			"table", table, "collisions", collisions, "rows", len(rows))
	}
	return projected
}

// projectRow writes mapped fields first, then passthrough columns. A
// passthrough column whose name equals an already written application field
// is skipped; the count of such skips is returned.
func projectRow(row legacybridge.Row, fields legacybridge.FieldMap) (legacybridge.Row, int) {
	if row == nil {
		return nil, 0
	}

	out := make(legacybridge.Row, len(row))
	fields.Each(func(alias legacybridge.FieldAlias) {
		if value, ok := row[alias.Legacy]; ok {
			out[alias.Application] = value
		}
	})

	// keys written by the mapped pass; passthrough must not overwrite them
	mapped := len(out)
	skipped := 0
	for key, value := range row {
		if fields.HasLegacy(key) {
			continue
		}
		if mapped > 0 {
			if _, taken := out[key]; taken {
				skipped++
				continue
			}
		}
		out[key] = value
	}
	return out, skipped
}
