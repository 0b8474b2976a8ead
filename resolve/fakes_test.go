package resolve

import (
	"context"
	"sync"

	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/knowledge"
)

type fakeStore struct {
	mu       sync.Mutex
	faqFunc  func(ctx context.Context, query string) ([]core.MatchResult, error)
	docFunc  func(ctx context.Context, query string, strategy core.Strategy) ([]core.MatchResult, error)
	attempts []core.Strategy
}

func (s *fakeStore) record(strategy core.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, strategy)
}

func (s *fakeStore) FindFAQ(ctx context.Context, query string, maxResults int) ([]core.MatchResult, error) {
	s.record(core.StrategyFAQ)
	if s.faqFunc == nil {
		return nil, knowledge.ErrNoMatch
	}
	return s.faqFunc(ctx, query)
}

func (s *fakeStore) FindDocuments(ctx context.Context, query string, maxResults int, strategy core.Strategy) ([]core.MatchResult, error) {
	s.record(strategy)
	if s.docFunc == nil {
		return nil, knowledge.ErrNoMatch
	}
	return s.docFunc(ctx, query, strategy)
}

func (s *fakeStore) Attempts() []core.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Strategy(nil), s.attempts...)
}

type fakeComposer struct {
	name  string
	fn    func(ctx context.Context, matches []core.MatchResult) (*core.ComposerOutcome, error)
	mu    sync.Mutex
	calls int
}

func (c *fakeComposer) Name() string { return c.name }

func (c *fakeComposer) Compose(ctx context.Context, _ core.Query, matches []core.MatchResult) (*core.ComposerOutcome, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.fn(ctx, matches)
}

func (c *fakeComposer) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// answering returns a composer that cites its first match.
func answering(name, text string, confidence float32) *fakeComposer {
	return &fakeComposer{
		name: name,
		fn: func(_ context.Context, matches []core.MatchResult) (*core.ComposerOutcome, error) {
			return &core.ComposerOutcome{
				Success:    true,
				Text:       text,
				Confidence: confidence,
				Cited:      matches[:1],
				Composer:   name,
			}, nil
		},
	}
}

func failing(name string, err error) *fakeComposer {
	return &fakeComposer{
		name: name,
		fn: func(context.Context, []core.MatchResult) (*core.ComposerOutcome, error) {
			return nil, err
		},
	}
}

type recordingMonitor struct {
	mu     sync.Mutex
	states []State
	done   []*Response
}

func (m *recordingMonitor) Start(core.Query) {}

func (m *recordingMonitor) EnterState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, s)
}

func (m *recordingMonitor) StageMatches(core.Strategy, []core.MatchResult, error) {}

func (m *recordingMonitor) ComposerOutcome(string, *core.ComposerOutcome, error) {}

func (m *recordingMonitor) Finish(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = append(m.done, resp)
}

func faqMatch(id core.ID, score float32) core.MatchResult {
	return core.MatchResult{
		Item: &core.FAQEntry{
			Id:       id,
			Question: "How to create an Employee?",
			Answer:   "Employee > Employees > Create > Fill out the form",
			Category: "Employee",
		},
		Score:    score,
		Strategy: core.StrategyFAQ,
	}
}

func docMatch(id core.ID, score float32, strategy core.Strategy) core.MatchResult {
	return core.MatchResult{
		Item: &core.Document{
			Id:       id,
			Title:    "Payroll schedule",
			Body:     "Salaries are paid monthly on the last working day.",
			Category: "Payroll",
		},
		Score:    score,
		Strategy: strategy,
	}
}

func testQuery(text string) core.Query {
	return core.Query{Text: text, UserID: "u1", ConversationID: "c1"}
}
