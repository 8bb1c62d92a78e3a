package internal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lychee-technology/legacybridge"
	"go.uber.org/zap"
)

// staticSchemaRegistry is the immutable SchemaRegistry built once at startup.
// Every map is written during construction only, so lookups need no locking.
type staticSchemaRegistry struct {
	tables      map[string]string
	fields      map[string]legacybridge.FieldMap
	names       []string
	diagnostics []legacybridge.Finding
}

// NewStaticSchemaRegistry creates a registry from table mappings in
// configuration order. The input is copied; later changes to it are not
// observed. Only structurally broken configuration is rejected.
func NewStaticSchemaRegistry(mappings []legacybridge.TableMapping) (legacybridge.SchemaRegistry, error) {
	registry := &staticSchemaRegistry{
		tables: make(map[string]string, len(mappings)),
		fields: make(map[string]legacybridge.FieldMap, len(mappings)),
	}

	seenTables := make(map[string]struct{}, len(mappings))
	for i, mapping := range mappings {
		appTable := strings.TrimSpace(mapping.Table.Application)
		if appTable == "" {
			return nil, legacybridge.NewMappingInvalidError("application table name is empty").
				WithDetail("index", i)
		}
		if _, seen := seenTables[appTable]; seen {
			return nil, legacybridge.NewMappingInvalidError("duplicate table mapping").WithTable(appTable)
		}
		seenTables[appTable] = struct{}{}

		if legacy := strings.TrimSpace(mapping.Table.Legacy); legacy != "" {
			registry.tables[appTable] = legacy
		}

		aliases := make([]legacybridge.FieldAlias, 0, len(mapping.Fields))
		seenFields := make(map[string]struct{}, len(mapping.Fields))
		for _, field := range mapping.Fields {
			app := strings.TrimSpace(field.Application)
			legacy := strings.TrimSpace(field.Legacy)
			if app == "" || legacy == "" {
				return nil, legacybridge.NewMappingInvalidError("field alias has an empty name").
					WithTable(appTable).
					WithField(field.Application)
			}
			if _, dup := seenFields[app]; dup {
				return nil, legacybridge.NewMappingInvalidError("duplicate field alias").
					WithTable(appTable).
					WithField(app)
			}
			seenFields[app] = struct{}{}
			aliases = append(aliases, legacybridge.FieldAlias{Application: app, Legacy: legacy})
		}

		_, hasAlias := registry.tables[appTable]
		if !hasAlias && len(aliases) == 0 {
			// nothing configured; identity is already the fallback
			continue
		}
		registry.fields[appTable] = legacybridge.NewFieldMap(aliases...)
		registry.names = append(registry.names, appTable)
	}

	sort.Strings(registry.names)
	registry.diagnostics = diagnoseRegistry(registry)

	for _, finding := range registry.diagnostics {
		zap.S().Warnw("schema mapping diagnostic",
			"kind", finding.Kind, "table", finding.Table, "field", finding.Field, "detail", finding.Detail)
	}
	zap.S().Debugw("schema registry built", "tables", len(registry.names), "findings", len(registry.diagnostics))

	return registry, nil
}

func (r *staticSchemaRegistry) LegacyTableName(appTable string) string {
	if legacy, ok := r.tables[appTable]; ok {
		return legacy
	}
	return appTable
}

func (r *staticSchemaRegistry) TableAlias(appTable string) (string, bool) {
	legacy, ok := r.tables[appTable]
	return legacy, ok
}

func (r *staticSchemaRegistry) FieldMap(appTable string) legacybridge.FieldMap {
	return r.fields[appTable]
}

func (r *staticSchemaRegistry) ListTables() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *staticSchemaRegistry) Diagnostics() []legacybridge.Finding {
	out := make([]legacybridge.Finding, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// String renders the registry for log output.
func (r *staticSchemaRegistry) String() string {
	return fmt.Sprintf("staticSchemaRegistry{tables: %d, findings: %d}", len(r.names), len(r.diagnostics))
}
