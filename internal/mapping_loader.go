package internal

import (
	"context"
	"errors"
	"time"

	"github.com/lychee-technology/legacybridge"
	"go.uber.org/zap"
)

// LoadSchemaRegistry loads the document of source and builds an immutable
// registry from it. timeout bounds the load; zero means no extra bound.
func LoadSchemaRegistry(ctx context.Context, source MappingSource, timeout time.Duration) (legacybridge.SchemaRegistry, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	doc, err := source.LoadDocument(ctx)
	if err != nil {
		return nil, err
	}

	registry, err := NewSchemaRegistryFromDocument(doc)
	if err != nil {
		var bridgeErr *legacybridge.BridgeError
		if errors.As(err, &bridgeErr) {
			bridgeErr.WithDetail("source", source.Describe())
		}
		return nil, err
	}

	zap.S().Infow("schema mapping loaded",
		"source", source.Describe(),
		"tables", len(registry.ListTables()),
		"findings", len(registry.Diagnostics()),
		"elapsed", time.Since(started))
	return registry, nil
}
