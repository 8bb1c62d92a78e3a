package internal

import (
	"context"
	"sync"

	"github.com/lychee-technology/legacybridge"
	"go.uber.org/zap"
)

// unmappedGuard applies the unmapped-table policy of the data-access layer.
// The adapter underneath always falls back to identity.
type unmappedGuard struct {
	registry legacybridge.SchemaRegistry
	policy   legacybridge.UnmappedPolicy
	warned   sync.Map // table -> struct{}
}

func newUnmappedGuard(registry legacybridge.SchemaRegistry, policy legacybridge.UnmappedPolicy) *unmappedGuard {
	if policy == "" {
		policy = legacybridge.UnmappedPolicyOpen
	}
	return &unmappedGuard{registry: registry, policy: policy}
}

// check returns an UNMAPPED_TABLE error in strict mode and logs the first
// query per table in warn mode.
func (g *unmappedGuard) check(ctx context.Context, table string) error {
	if g.policy == legacybridge.UnmappedPolicyOpen || legacybridge.IsMapped(g.registry, table) {
		return nil
	}

	EmitUnmappedTable(ctx, table, string(g.policy))
	switch g.policy {
	case legacybridge.UnmappedPolicyStrict:
		return legacybridge.NewUnmappedTableError(table)
	case legacybridge.UnmappedPolicyWarn:
		if _, loaded := g.warned.LoadOrStore(table, struct{}{}); !loaded {
			zap.S().Warnw("query against unmapped table, using names unchanged", "table", table)
		}
	}
	return nil
}
