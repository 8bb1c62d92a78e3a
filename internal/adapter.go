package internal

import (
	"github.com/lychee-technology/legacybridge"
	"go.uber.org/zap"
)

// AdapterOptions configures NewAdapter.
type AdapterOptions struct {
	Translator TranslatorOptions
	// LogQueries logs the application and legacy query text at debug level.
	LogQueries bool
}

// adapter composes a QueryTranslator and a ResultProjector over one registry.
type adapter struct {
	registry   legacybridge.SchemaRegistry
	translator *QueryTranslator
	projector  *ResultProjector
	logQueries bool
}

// NewAdapter creates the adapter facade.
func NewAdapter(registry legacybridge.SchemaRegistry, options AdapterOptions) legacybridge.Adapter {
	return &adapter{
		registry:   registry,
		translator: NewQueryTranslator(registry, options.Translator),
		projector:  NewResultProjector(registry),
		logQueries: options.LogQueries,
	}
}

func (a *adapter) PrepareQuery(table, query string) string {
	translated := a.translator.Translate(query, table)
	if a.logQueries {
		zap.S().Debugw("prepared legacy query", "table", table, "query", query, "legacyQuery", translated)
	}
	return translated
}

func (a *adapter) ProjectResults(table string, rows []legacybridge.Row) []legacybridge.Row {
	return a.projector.Project(rows, table)
}

func (a *adapter) Registry() legacybridge.SchemaRegistry {
	return a.registry
}
