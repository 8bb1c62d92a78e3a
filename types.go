package legacybridge

// Row is one result row keyed by column name. Keys are legacy column names
// before projection and application field names after.
type Row map[string]any

// TableAlias maps an application table name onto its legacy table name.
type TableAlias struct {
	Application string `json:"application" yaml:"application"`
	Legacy      string `json:"legacy" yaml:"legacy"`
}

// FieldAlias maps an application field name onto its legacy column name
// within a single table.
type FieldAlias struct {
	Application string `json:"application" yaml:"application"`
	Legacy      string `json:"legacy" yaml:"legacy"`
}

// IsIdentity reports whether the alias maps a field onto itself.
func (a FieldAlias) IsIdentity() bool {
	return a.Application == a.Legacy
}

// FieldMap is the ordered, read-only field alias list of one table.
// The zero value is an empty map.
type FieldMap struct {
	entries  []FieldAlias
	byApp    map[string]int
	byLegacy map[string][]int
}

// NewFieldMap builds a FieldMap preserving the order of aliases.
// A repeated application name keeps its first position and takes the last
// legacy value; registries reject duplicates before getting here.
func NewFieldMap(aliases ...FieldAlias) FieldMap {
	fm := FieldMap{
		entries:  make([]FieldAlias, 0, len(aliases)),
		byApp:    make(map[string]int, len(aliases)),
		byLegacy: make(map[string][]int, len(aliases)),
	}
	for _, alias := range aliases {
		if idx, ok := fm.byApp[alias.Application]; ok {
			fm.entries[idx].Legacy = alias.Legacy
			continue
		}
		fm.byApp[alias.Application] = len(fm.entries)
		fm.entries = append(fm.entries, alias)
	}
	for idx, alias := range fm.entries {
		fm.byLegacy[alias.Legacy] = append(fm.byLegacy[alias.Legacy], idx)
	}
	return fm
}

// Len returns the number of aliases.
func (m FieldMap) Len() int {
	return len(m.entries)
}

// IsEmpty reports whether the map holds no aliases.
func (m FieldMap) IsEmpty() bool {
	return len(m.entries) == 0
}

// Entries returns a copy of the aliases in insertion order.
func (m FieldMap) Entries() []FieldAlias {
	out := make([]FieldAlias, len(m.entries))
	copy(out, m.entries)
	return out
}

// Each calls fn for every alias in insertion order without copying.
func (m FieldMap) Each(fn func(FieldAlias)) {
	for _, alias := range m.entries {
		fn(alias)
	}
}

// Legacy returns the legacy column for an application field.
func (m FieldMap) Legacy(application string) (string, bool) {
	idx, ok := m.byApp[application]
	if !ok {
		return "", false
	}
	return m.entries[idx].Legacy, true
}

// HasApplication reports whether the application field is configured.
func (m FieldMap) HasApplication(application string) bool {
	_, ok := m.byApp[application]
	return ok
}

// HasLegacy reports whether any alias targets the legacy column.
func (m FieldMap) HasLegacy(legacy string) bool {
	_, ok := m.byLegacy[legacy]
	return ok
}

// ApplicationsFor returns the application fields mapped onto one legacy
// column, in insertion order. More than one result means a lossy mapping.
func (m FieldMap) ApplicationsFor(legacy string) []string {
	idxs := m.byLegacy[legacy]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]string, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, m.entries[idx].Application)
	}
	return out
}

// TableMapping is the full configuration of one application table.
type TableMapping struct {
	Table  TableAlias   `json:"table" yaml:"table"`
	Fields []FieldAlias `json:"fields,omitempty" yaml:"fields,omitempty"`
}
