package resolve

import (
	"fmt"
	"io"
	"sync"

	"github.com/poiesic/resolvit/core"
)

// Monitor provides hooks to observe a resolution.
// Implement this interface to trace state transitions and stage results.
type Monitor interface {
	Start(query core.Query)
	EnterState(state State)
	StageMatches(strategy core.Strategy, matches []core.MatchResult, err error)
	ComposerOutcome(composer string, outcome *core.ComposerOutcome, err error)
	Finish(resp *Response)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (noopMonitor) Start(_ core.Query)                                          {}
func (noopMonitor) EnterState(_ State)                                          {}
func (noopMonitor) StageMatches(_ core.Strategy, _ []core.MatchResult, _ error) {}
func (noopMonitor) ComposerOutcome(_ string, _ *core.ComposerOutcome, _ error)  {}
func (noopMonitor) Finish(_ *Response)                                          {}

// TraceMonitor writes a human-readable trace of each resolution.
type TraceMonitor struct {
	mu sync.Mutex
	w  io.Writer
}

var _ Monitor = (*TraceMonitor)(nil)

// NewTraceMonitor creates a monitor writing to w.
func NewTraceMonitor(w io.Writer) *TraceMonitor {
	return &TraceMonitor{w: w}
}

func (m *TraceMonitor) printf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.w, format, args...)
}

func (m *TraceMonitor) Start(query core.Query) {
	m.printf("query: %q (conversation %s)\n", query.Text, query.ConversationID)
}

func (m *TraceMonitor) EnterState(state State) {
	m.printf("-> %s\n", state)
}

func (m *TraceMonitor) StageMatches(strategy core.Strategy, matches []core.MatchResult, err error) {
	if err != nil {
		m.printf("   %s: %v\n", strategy, err)
		return
	}
	m.printf("   %s: %d match(es)\n", strategy, len(matches))
	for i, match := range matches {
		m.printf("     %d: %s %d [%0.3f]\n", i, match.Item.Kind(), match.Item.ItemID(), match.Score)
	}
}

func (m *TraceMonitor) ComposerOutcome(composer string, outcome *core.ComposerOutcome, err error) {
	if err != nil {
		m.printf("   %s composer: %v\n", composer, err)
		return
	}
	m.printf("   %s composer: success=%t confidence=%0.3f cited=%d\n",
		composer, outcome.Success, outcome.Confidence, len(outcome.Cited))
}

func (m *TraceMonitor) Finish(resp *Response) {
	m.printf("done: success=%t strategy=%s confidence=%0.3f\n", resp.Success, resp.Strategy, resp.Confidence)
}
