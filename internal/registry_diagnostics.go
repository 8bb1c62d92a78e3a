package internal

import (
	"fmt"
	"strings"

	"github.com/lychee-technology/legacybridge"
)

// diagnoseRegistry inspects a fully built registry for configurations that
// are legal but lossy or order-sensitive. Findings are ordered by table name
// and then by field position.
func diagnoseRegistry(r *staticSchemaRegistry) []legacybridge.Finding {
	var findings []legacybridge.Finding

	for _, table := range r.names {
		entries := r.fields[table].Entries()
		legacyTable, hasAlias := r.tables[table]

		if !hasAlias && len(entries) > 0 {
			findings = append(findings, legacybridge.Finding{
				Kind:   legacybridge.FindingFieldsWithoutTableAlias,
				Table:  table,
				Detail: "field aliases are applied but the table name is left unchanged",
			})
		}

		if hasAlias && legacyTable != table {
			findings = append(findings, tableSubstringFindings(r, table, entries)...)
		}

		reportedShared := make(map[string]struct{})
		for i, alias := range entries {
			if alias.IsIdentity() {
				findings = append(findings, legacybridge.Finding{
					Kind:   legacybridge.FindingIdentityAlias,
					Table:  table,
					Field:  alias.Application,
					Detail: "alias maps the field onto itself",
				})
				continue
			}

			for _, later := range entries[i+1:] {
				if later.Application == alias.Legacy && !later.IsIdentity() {
					findings = append(findings, legacybridge.Finding{
						Kind:  legacybridge.FindingChainedField,
						Table: table,
						Field: alias.Application,
						Detail: fmt.Sprintf("sequential rewriting turns %s into %s via %s",
							alias.Application, later.Legacy, alias.Legacy),
					})
				}
			}

			if _, done := reportedShared[alias.Legacy]; done {
				continue
			}
			if apps := r.fields[table].ApplicationsFor(alias.Legacy); len(apps) > 1 {
				reportedShared[alias.Legacy] = struct{}{}
				findings = append(findings, legacybridge.Finding{
					Kind:  legacybridge.FindingSharedLegacyField,
					Table: table,
					Field: alias.Legacy,
					Detail: fmt.Sprintf("legacy column %s backs %s; projection copies one value into all of them",
						alias.Legacy, strings.Join(apps, ", ")),
				})
			}
		}
	}

	return findings
}

// tableSubstringFindings reports identifiers that literal table replacement
// would corrupt: application fields of the table and other application tables
// whose names contain the table name without being equal to it.
func tableSubstringFindings(r *staticSchemaRegistry, table string, entries []legacybridge.FieldAlias) []legacybridge.Finding {
	var findings []legacybridge.Finding
	for _, alias := range entries {
		if alias.Application != table && strings.Contains(alias.Application, table) {
			findings = append(findings, legacybridge.Finding{
				Kind:   legacybridge.FindingTableSubstring,
				Table:  table,
				Field:  alias.Application,
				Detail: fmt.Sprintf("literal table replacement rewrites field %s", alias.Application),
			})
		}
	}
	for _, other := range r.names {
		if other != table && strings.Contains(other, table) {
			findings = append(findings, legacybridge.Finding{
				Kind:   legacybridge.FindingTableSubstring,
				Table:  table,
				Detail: fmt.Sprintf("literal table replacement rewrites table name %s", other),
			})
		}
	}
	return findings
}
