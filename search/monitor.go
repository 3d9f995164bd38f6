package search

import "github.com/poiesic/vibegrep/core"

// Monitor provides hooks to observe a search run.
// All hooks are called from the consumer loop, never concurrently.
type Monitor interface {
	Start(runID, query string, files, batches int)
	BatchDone(result core.DispatchResult, records []core.MatchRecord)
	Diagnostic(msg string)
	Finish(summary *Summary)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string, _, _ int)                         {}
func (n *noopMonitor) BatchDone(_ core.DispatchResult, _ []core.MatchRecord) {}
func (n *noopMonitor) Diagnostic(_ string)                                  {}
func (n *noopMonitor) Finish(_ *Summary)                                    {}
