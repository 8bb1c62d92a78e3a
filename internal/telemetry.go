package internal

import (
	"context"
	"sync"
	"time"
)

// Telemetry hooks of the data-access layer. The default emitter is a no-op;
// binaries may register a metrics-backed or logging emitter.

// TelemetryEmitter receives one measurement.
type TelemetryEmitter func(ctx context.Context, name string, labels map[string]string, value any)

const (
	MetricQueryLatency  = "legacybridge_query_latency_ms"
	MetricRowCount      = "legacybridge_row_count"
	MetricUnmappedTable = "legacybridge_unmapped_table_total"
)

const (
	StageTranslate = "translate"
	StageExecute   = "execute"
	StageProject   = "project"
)

var (
	teleMu   sync.Mutex
	teleImpl TelemetryEmitter = func(ctx context.Context, name string, labels map[string]string, value any) {}
)

// RegisterTelemetryEmitter replaces the emitter. nil restores the no-op.
func RegisterTelemetryEmitter(fn TelemetryEmitter) {
	teleMu.Lock()
	defer teleMu.Unlock()
	if fn == nil {
		teleImpl = func(ctx context.Context, name string, labels map[string]string, value any) {}
		return
	}
	teleImpl = fn
}

func currentEmitter() TelemetryEmitter {
	teleMu.Lock()
	defer teleMu.Unlock()
	return teleImpl
}

// EmitLatency records the duration of one stage in milliseconds.
func EmitLatency(ctx context.Context, table, stage string, elapsed time.Duration) {
	labels := map[string]string{"table": table, "stage": stage}
	currentEmitter()(ctx, MetricQueryLatency, labels, elapsed.Milliseconds())
}

// EmitRowCount records how many rows a query returned.
// backend is "pgx" or the database/sql driver name.
func EmitRowCount(ctx context.Context, table, backend string, rows int) {
	labels := map[string]string{"table": table, "backend": backend}
	currentEmitter()(ctx, MetricRowCount, labels, int64(rows))
}

// EmitUnmappedTable records a query against a table without configuration.
func EmitUnmappedTable(ctx context.Context, table, policy string) {
	labels := map[string]string{"table": table, "policy": policy}
	currentEmitter()(ctx, MetricUnmappedTable, labels, int64(1))
}
