package legacybridge

// FindingKind classifies a registry diagnostic.
type FindingKind string

const (
	// FindingChainedField marks a legacy field name that is also the
	// application name of another field of the same table. Sequential
	// rewriting turns the first into the second's legacy name.
	FindingChainedField FindingKind = "chained_field"
	// FindingSharedLegacyField marks two application fields projecting from
	// the same legacy column; a row round-trip loses one of them.
	FindingSharedLegacyField FindingKind = "shared_legacy_field"
	// FindingIdentityAlias marks an alias whose two names are equal.
	FindingIdentityAlias FindingKind = "identity_alias"
	// FindingTableSubstring marks an aliased table name contained in another
	// configured identifier, which literal table replacement corrupts.
	FindingTableSubstring FindingKind = "table_substring"
	// FindingFieldsWithoutTableAlias marks a table that only has field
	// aliases; its table name stays unchanged in queries.
	FindingFieldsWithoutTableAlias FindingKind = "fields_without_table_alias"
)

// Finding is a single registry diagnostic produced at construction time.
type Finding struct {
	Kind   FindingKind `json:"kind"`
	Table  string      `json:"table"`
	Field  string      `json:"field,omitempty"`
	Detail string      `json:"detail"`
}

// SchemaRegistry is the read-only source of application-to-legacy names.
// Lookups never fail: a missing mapping means identity.
type SchemaRegistry interface {
	// LegacyTableName returns the legacy name of appTable, or appTable itself.
	LegacyTableName(appTable string) string
	// TableAlias returns the legacy table name and whether one is configured.
	TableAlias(appTable string) (string, bool)
	// FieldMap returns the ordered field aliases of appTable, possibly empty.
	FieldMap(appTable string) FieldMap
	// ListTables returns every table with a table alias or field aliases.
	ListTables() []string
	// Diagnostics returns the findings computed when the registry was built.
	Diagnostics() []Finding
}

// IsMapped reports whether a table has any configuration at all.
func IsMapped(registry SchemaRegistry, appTable string) bool {
	if _, ok := registry.TableAlias(appTable); ok {
		return true
	}
	return !registry.FieldMap(appTable).IsEmpty()
}
