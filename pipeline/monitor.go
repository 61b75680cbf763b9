package pipeline

import (
	"github.com/poiesic/editais/cache"
	"github.com/poiesic/editais/consolidate"
)

// Monitor provides hooks to observe one pipeline run.
// Implement this interface to track intermediate stages during a query.
type Monitor interface {
	Start(query *Query)
	CacheHit(key string, status cache.Status)
	CacheMiss(key string)
	AfterConsolidation(result *consolidate.Result)
	AfterFiltering(kept, dropped int)
	ServedStale(key string)
	Finish(response *Response)
}

// noopMonitor is a no-op implementation of Monitor.
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *Query)                           {}
func (n *noopMonitor) CacheHit(_ string, _ cache.Status)        {}
func (n *noopMonitor) CacheMiss(_ string)                       {}
func (n *noopMonitor) AfterConsolidation(_ *consolidate.Result) {}
func (n *noopMonitor) AfterFiltering(_, _ int)                  {}
func (n *noopMonitor) ServedStale(_ string)                     {}
func (n *noopMonitor) Finish(_ *Response)                       {}

// Telemetry receives fire-and-forget pipeline events. Implementations must
// return quickly and never error; a run behaves identically with or
// without a backend installed.
type Telemetry interface {
	Emit(stage, message string, attrs map[string]any)
}

type noopTelemetry struct{}

var _ Telemetry = noopTelemetry{}

func (noopTelemetry) Emit(_, _ string, _ map[string]any) {}
