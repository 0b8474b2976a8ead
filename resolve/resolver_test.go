package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/ai/mock"
	"github.com/poiesic/resolvit/compose"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/knowledge"
	"github.com/poiesic/resolvit/storage"
	"github.com/poiesic/resolvit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, store KnowledgeStore, primary, fallback compose.Composer, opts ...Option) *Resolver {
	t.Helper()
	r, err := NewResolver(store, primary, fallback, opts...)
	require.NoError(t, err)
	return r
}

func TestNewResolver(t *testing.T) {
	store := &fakeStore{}
	p := answering(compose.NamePrimary, "a", 1)
	f := answering(compose.NameFallback, "b", 1)

	_, err := NewResolver(nil, p, f)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewResolver(store, nil, f)
	assert.ErrorIs(t, err, ErrComposerRequired)

	bad := DefaultConfig()
	bad.AcceptanceThreshold = 2
	_, err = NewResolver(store, p, f, WithConfig(bad))
	assert.Error(t, err)

	r, err := NewResolver(store, p, f)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.Config())
}

func TestResolve_InvalidQuery(t *testing.T) {
	r := newTestResolver(t, &fakeStore{}, answering(compose.NamePrimary, "a", 1), answering(compose.NameFallback, "b", 1))

	_, err := r.Resolve(context.Background(), core.Query{Text: "   ", ConversationID: "c1"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.ErrorIs(t, err, core.ErrEmptyQuery)

	_, err = r.Resolve(context.Background(), core.Query{Text: "hello"})
	assert.ErrorIs(t, err, core.ErrEmptyConversationID)
}

func TestResolve_FAQAnswerSkipsDocuments(t *testing.T) {
	store := &fakeStore{
		faqFunc: func(context.Context, string) ([]core.MatchResult, error) {
			return []core.MatchResult{faqMatch(7, 1)}, nil
		},
	}
	primary := answering(compose.NamePrimary, "Employee > Employees > Create > Fill out the form", 0.9)
	fallback := answering(compose.NameFallback, "unused", 1)
	r := newTestResolver(t, store, primary, fallback)

	resp, err := r.Resolve(context.Background(), testQuery("How to create an Employee?"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "faq_search", resp.Strategy)
	assert.Equal(t, compose.NamePrimary, resp.Composer)
	assert.InDelta(t, 0.9, resp.Confidence, 1e-6)
	require.Len(t, resp.ReferencedFAQs, 1)
	assert.Equal(t, core.ID(7), resp.ReferencedFAQs[0].ID)
	assert.Empty(t, resp.ReferencedDocuments)
	assert.Equal(t, []core.Strategy{core.StrategyFAQ}, store.Attempts())
	assert.Zero(t, fallback.CallCount())
}

func TestResolve_FAQBelowFloorTriesDocumentsInOrder(t *testing.T) {
	store := &fakeStore{
		faqFunc: func(context.Context, string) ([]core.MatchResult, error) {
			return []core.MatchResult{faqMatch(7, 0.45)}, nil
		},
		docFunc: func(_ context.Context, _ string, strategy core.Strategy) ([]core.MatchResult, error) {
			if strategy == core.StrategyKeyword {
				return []core.MatchResult{docMatch(9, 0.8, strategy)}, nil
			}
			return nil, knowledge.ErrNoMatch
		},
	}
	r := newTestResolver(t, store, answering(compose.NamePrimary, "Monthly.", 0.8), answering(compose.NameFallback, "unused", 1))

	resp, err := r.Resolve(context.Background(), testQuery("When is payday?"))
	require.NoError(t, err)

	assert.Equal(t, "keyword_search", resp.Strategy)
	assert.Equal(t,
		[]core.Strategy{core.StrategyFAQ, core.StrategyAISearch, core.StrategyKeyword},
		store.Attempts())
	require.Len(t, resp.ReferencedDocuments, 1)
	assert.Equal(t, core.ID(9), resp.ReferencedDocuments[0].ID)
	assert.Equal(t, "Payroll schedule", resp.ReferencedDocuments[0].Title)
	assert.Empty(t, resp.ReferencedFAQs)
}

func TestResolve_NoMatchesAnywhere(t *testing.T) {
	store := &fakeStore{}
	primary := answering(compose.NamePrimary, "unused", 1)
	fallback := answering(compose.NameFallback, "unused", 1)
	_, turns, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { turns.Close(); backend.Close() })

	r := newTestResolver(t, store, primary, fallback, WithConversationLog(turns))

	resp, err := r.Resolve(context.Background(), testQuery("quantum lattice chromodynamics"))
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, DefaultNoAnswerMessage, resp.Text)
	assert.Equal(t, core.StrategyLabelExhausted, resp.Strategy)
	assert.Zero(t, resp.Confidence)
	assert.Empty(t, resp.ReferencedFAQs)
	assert.Empty(t, resp.ReferencedDocuments)
	assert.Zero(t, primary.CallCount())
	assert.Zero(t, fallback.CallCount())
	assert.Len(t, store.Attempts(), 1+len(core.DocumentStrategies))

	logged, err := turns.GetTurns(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.False(t, logged[0].Success)
	assert.Empty(t, logged[0].Citations)
}

func TestResolve_FallbackWhenPrimaryFails(t *testing.T) {
	faqs := func(context.Context, string) ([]core.MatchResult, error) {
		return []core.MatchResult{faqMatch(7, 0.95)}, nil
	}

	tests := []struct {
		name    string
		primary *fakeComposer
	}{
		{name: "unavailable", primary: failing(compose.NamePrimary, compose.ErrComposerUnavailable)},
		{name: "timeout", primary: failing(compose.NamePrimary, compose.ErrComposerTimeout)},
		{name: "below threshold", primary: answering(compose.NamePrimary, "maybe", 0.2)},
		{
			name: "no citations",
			primary: &fakeComposer{
				name: compose.NamePrimary,
				fn: func(context.Context, []core.MatchResult) (*core.ComposerOutcome, error) {
					return &core.ComposerOutcome{Text: "uncited", Composer: compose.NamePrimary}, nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, &fakeStore{faqFunc: faqs}, tt.primary, compose.NewFallback())

			resp, err := r.Resolve(context.Background(), testQuery("How to create an Employee?"))
			require.NoError(t, err)

			assert.True(t, resp.Success)
			assert.Equal(t, compose.NameFallback, resp.Composer)
			assert.Equal(t, "faq_search", resp.Strategy)
			assert.Equal(t, "Employee > Employees > Create > Fill out the form", resp.Text)
			assert.NotEmpty(t, resp.Citations())
			assert.Equal(t, 1, tt.primary.CallCount())
		})
	}
}

func TestResolve_BothComposersFail(t *testing.T) {
	store := &fakeStore{
		faqFunc: func(context.Context, string) ([]core.MatchResult, error) {
			return []core.MatchResult{faqMatch(7, 0.95)}, nil
		},
	}
	r := newTestResolver(t, store,
		failing(compose.NamePrimary, compose.ErrComposerUnavailable),
		failing(compose.NameFallback, errors.New("broken")))

	resp, err := r.Resolve(context.Background(), testQuery("How to create an Employee?"))
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, DefaultNoAnswerMessage, resp.Text)
	assert.Zero(t, resp.Confidence)
	assert.Empty(t, resp.Citations())
}

func TestResolve_StageTimeoutAdvances(t *testing.T) {
	store := &fakeStore{
		docFunc: func(ctx context.Context, _ string, strategy core.Strategy) ([]core.MatchResult, error) {
			switch strategy {
			case core.StrategyAISearch:
				<-ctx.Done()
				return nil, ctx.Err()
			case core.StrategyKeyword:
				return []core.MatchResult{docMatch(3, 0.7, strategy)}, nil
			}
			return nil, knowledge.ErrNoMatch
		},
	}
	cfg := DefaultConfig()
	cfg.SemanticTimeout = 20 * time.Millisecond
	r := newTestResolver(t, store, answering(compose.NamePrimary, "Monthly.", 0.9), answering(compose.NameFallback, "unused", 1), WithConfig(cfg))

	resp, err := r.Resolve(context.Background(), testQuery("When is payday?"))
	require.NoError(t, err)
	assert.Equal(t, "keyword_search", resp.Strategy)
	assert.True(t, resp.Success)
}

func TestResolve_HangingPrimaryFallsBackAfterTimeout(t *testing.T) {
	store := &fakeStore{
		faqFunc: func(context.Context, string) ([]core.MatchResult, error) {
			return []core.MatchResult{faqMatch(7, 0.95)}, nil
		},
	}
	primary := &fakeComposer{
		name: compose.NamePrimary,
		fn: func(ctx context.Context, _ []core.MatchResult) (*core.ComposerOutcome, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	cfg := DefaultConfig()
	cfg.PrimaryTimeout = 20 * time.Millisecond
	r := newTestResolver(t, store, primary, compose.NewFallback(), WithConfig(cfg))

	start := time.Now()
	resp, err := r.Resolve(context.Background(), testQuery("How to create an Employee?"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, resp.Success)
	assert.Equal(t, compose.NameFallback, resp.Composer)
	assert.Equal(t, "faq_search", resp.Strategy)
	assert.Equal(t, "Employee > Employees > Create > Fill out the form", resp.Text)
	assert.Equal(t, 1, primary.CallCount())
}

func TestResolve_ConcurrentQueries(t *testing.T) {
	store := &fakeStore{
		faqFunc: func(_ context.Context, query string) ([]core.MatchResult, error) {
			if strings.Contains(query, "Employee") {
				return []core.MatchResult{faqMatch(7, 0.95)}, nil
			}
			return nil, knowledge.ErrNoMatch
		},
		docFunc: func(_ context.Context, _ string, strategy core.Strategy) ([]core.MatchResult, error) {
			if strategy == core.StrategyKeyword {
				return []core.MatchResult{docMatch(3, 0.8, strategy)}, nil
			}
			return nil, knowledge.ErrNoMatch
		},
	}
	_, turns, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { turns.Close(); backend.Close() })

	primary := answering(compose.NamePrimary, "Answered.", 0.9)
	r := newTestResolver(t, store, primary, compose.NewFallback(), WithConversationLog(turns))

	const n = 16
	responses := make([]*Response, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := core.Query{Text: "When is payday?", UserID: "u1", ConversationID: fmt.Sprintf("c%d", i)}
			if i%2 == 0 {
				q.Text = "How to create an Employee?"
			}
			responses[i], errs[i] = r.Resolve(context.Background(), q)
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		resp := responses[i]
		assert.True(t, resp.Success)
		assert.Equal(t, compose.NamePrimary, resp.Composer)
		if i%2 == 0 {
			assert.Equal(t, "faq_search", resp.Strategy)
			require.Len(t, resp.ReferencedFAQs, 1)
			assert.Equal(t, core.ID(7), resp.ReferencedFAQs[0].ID)
		} else {
			assert.Equal(t, "keyword_search", resp.Strategy)
			require.Len(t, resp.ReferencedDocuments, 1)
			assert.Equal(t, core.ID(3), resp.ReferencedDocuments[0].ID)
		}

		logged, err := turns.GetTurns(context.Background(), fmt.Sprintf("c%d", i))
		require.NoError(t, err)
		require.Len(t, logged, 1)
		assert.Equal(t, resp.TurnID, logged[0].Id)
	}
	assert.Equal(t, n, primary.CallCount())
}

func TestResolve_StoreOutage(t *testing.T) {
	store := &fakeStore{
		faqFunc: func(context.Context, string) ([]core.MatchResult, error) {
			return nil, fmt.Errorf("%w: backend closed", knowledge.ErrStoreUnavailable)
		},
	}
	primary := answering(compose.NamePrimary, "unused", 1)
	_, turns, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { turns.Close(); backend.Close() })
	monitor := &recordingMonitor{}

	r := newTestResolver(t, store, primary, compose.NewFallback(), WithConversationLog(turns), WithMonitor(monitor))

	resp, err := r.Resolve(context.Background(), testQuery("How to create an Employee?"))
	require.ErrorIs(t, err, knowledge.ErrStoreUnavailable)
	require.NotNil(t, resp)

	assert.False(t, resp.Success)
	assert.Equal(t, DefaultUnavailableMessage, resp.Text)
	assert.Equal(t, core.StrategyLabelUnavailable, resp.Strategy)
	assert.Empty(t, resp.Citations())
	assert.Zero(t, primary.CallCount())
	assert.Equal(t, StateDoneUnavailable, monitor.states[len(monitor.states)-1])

	logged, err := turns.GetTurns(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, logged)
}

func TestResolve_CancellationWritesNoTurn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeStore{
		faqFunc: func(context.Context, string) ([]core.MatchResult, error) {
			return []core.MatchResult{faqMatch(7, 1)}, nil
		},
	}
	primary := &fakeComposer{
		name: compose.NamePrimary,
		fn: func(context.Context, []core.MatchResult) (*core.ComposerOutcome, error) {
			cancel()
			return nil, compose.ErrComposerUnavailable
		},
	}
	fallback := answering(compose.NameFallback, "unused", 1)
	_, turns, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { turns.Close(); backend.Close() })

	r := newTestResolver(t, store, primary, fallback, WithConversationLog(turns))

	resp, err := r.Resolve(ctx, testQuery("How to create an Employee?"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, resp)
	assert.Zero(t, fallback.CallCount())

	logged, err := turns.GetTurns(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, logged)
}

func TestResolve_AppendsTurn(t *testing.T) {
	store := &fakeStore{
		faqFunc: func(context.Context, string) ([]core.MatchResult, error) {
			return []core.MatchResult{faqMatch(7, 1)}, nil
		},
	}
	_, turns, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { turns.Close(); backend.Close() })
	stamp := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	r := newTestResolver(t, store,
		answering(compose.NamePrimary, "Open Employee > Employees > Create.", 0.9),
		compose.NewFallback(),
		WithConversationLog(turns),
		WithClock(func() time.Time { return stamp }))

	resp, err := r.Resolve(context.Background(), testQuery("How to create an Employee?"))
	require.NoError(t, err)

	logged, err := turns.GetTurns(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, logged, 1)

	turn := logged[0]
	assert.Equal(t, resp.TurnID, turn.Id)
	assert.NotZero(t, turn.Id)
	assert.Equal(t, "u1", turn.UserID)
	assert.Equal(t, "How to create an Employee?", turn.Query)
	assert.Equal(t, resp.Text, turn.Response)
	assert.Equal(t, "faq_search", turn.Strategy)
	assert.Equal(t, compose.NamePrimary, turn.Composer)
	assert.True(t, turn.Success)
	assert.True(t, stamp.Equal(turn.Timestamp))
	assert.Equal(t, []core.Citation{{Kind: core.ItemKindFAQ, ItemID: 7}}, turn.Citations)
}

func TestResolve_AppendFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{
		faqFunc: func(context.Context, string) ([]core.MatchResult, error) {
			return []core.MatchResult{faqMatch(7, 1)}, nil
		},
	}
	_, turns, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	turns.Close()
	require.NoError(t, backend.Close())

	r := newTestResolver(t, store, answering(compose.NamePrimary, "Create it.", 0.9), compose.NewFallback(), WithConversationLog(turns))

	resp, err := r.Resolve(context.Background(), testQuery("How to create an Employee?"))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Zero(t, resp.TurnID)
}

func TestResolve_StatesAdvanceMonotonically(t *testing.T) {
	store := &fakeStore{
		docFunc: func(_ context.Context, _ string, strategy core.Strategy) ([]core.MatchResult, error) {
			if strategy == core.StrategyEmbedding {
				return []core.MatchResult{docMatch(4, 0.65, strategy)}, nil
			}
			return nil, knowledge.ErrNoMatch
		},
	}
	monitor := &recordingMonitor{}
	r := newTestResolver(t, store,
		answering(compose.NamePrimary, "weak", 0.1),
		compose.NewFallback(),
		WithMonitor(monitor))

	resp, err := r.Resolve(context.Background(), testQuery("When is payday?"))
	require.NoError(t, err)
	assert.Equal(t, "embedding_search", resp.Strategy)

	want := []State{
		StateStart,
		StateFAQLookup,
		StateDocLookup, StateDocLookup, StateDocLookup,
		StateComposePrimary,
		StateComposeFallback,
		StateDoneSuccess,
	}
	assert.Equal(t, want, monitor.states)
	require.Len(t, monitor.done, 1)
	assert.True(t, monitor.states[len(monitor.states)-1].Terminal())
}

// End-to-end over a real store and the production composers.

func newKnowledgeStore(t *testing.T) (*knowledge.Store, storage.ConversationRepository) {
	t.Helper()
	repo, turns, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		turns.Close()
		repo.Close()
		backend.Close()
	})

	ctx := context.Background()
	_, err = repo.AddFAQs(ctx, &core.FAQEntry{
		Question: "How to create an Employee?",
		Answer:   "Employee > Employees > Create > Fill out the form",
		Category: "Employee",
	})
	require.NoError(t, err)
	_, err = repo.AddDocuments(ctx, &core.Document{
		Title:    "Payroll schedule",
		Body:     "Salaries are paid monthly on the last working day.",
		Category: "Payroll",
	})
	require.NoError(t, err)

	store, err := knowledge.NewStore(repo)
	require.NoError(t, err)
	return store, turns
}

func newPipeline(t *testing.T, generator *mock.MockAnswerGenerator) (*Resolver, storage.ConversationRepository) {
	t.Helper()
	store, turns := newKnowledgeStore(t)
	primary, err := compose.NewPrimary(generator)
	require.NoError(t, err)
	return newTestResolver(t, store, primary, compose.NewFallback(), WithConversationLog(turns)), turns
}

func TestPipeline_IdenticalFAQQuestion(t *testing.T) {
	r, _ := newPipeline(t, mock.NewMockAnswerGenerator())

	resp, err := r.Resolve(context.Background(), testQuery("How to create an Employee?"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "faq_search", resp.Strategy)
	assert.Equal(t, "Employee > Employees > Create > Fill out the form", resp.Text)
	require.Len(t, resp.ReferencedFAQs, 1)
	assert.Equal(t, "How to create an Employee?", resp.ReferencedFAQs[0].Question)
	assert.Empty(t, resp.ReferencedDocuments)
}

func TestPipeline_KeywordDocument(t *testing.T) {
	r, _ := newPipeline(t, mock.NewMockAnswerGenerator())

	resp, err := r.Resolve(context.Background(), testQuery("payroll salaries paid"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "keyword_search", resp.Strategy)
	require.Len(t, resp.ReferencedDocuments, 1)
	assert.Equal(t, "Payroll schedule", resp.ReferencedDocuments[0].Title)
}

func TestPipeline_PrimaryDownUsesFallback(t *testing.T) {
	generator := mock.NewMockAnswerGenerator()
	generator.GenerateAnswerFunc = func(ctx context.Context, _ ai.AnswerRequest) (*ai.GeneratedAnswer, error) {
		return nil, errors.New("connection refused")
	}
	r, _ := newPipeline(t, generator)

	resp, err := r.Resolve(context.Background(), testQuery("How to create an Employee?"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, compose.NameFallback, resp.Composer)
	assert.Equal(t, "Employee > Employees > Create > Fill out the form", resp.Text)
	assert.Len(t, resp.ReferencedFAQs, 1)
}

func TestPipeline_Deterministic(t *testing.T) {
	r, _ := newPipeline(t, mock.NewMockAnswerGenerator())
	ctx := context.Background()

	for _, q := range []string{"How to create an Employee?", "payroll salaries paid", "quantum lattice"} {
		first, err := r.Resolve(ctx, testQuery(q))
		require.NoError(t, err)
		second, err := r.Resolve(ctx, testQuery(q))
		require.NoError(t, err)

		if diff := cmp.Diff(first, second, cmpopts.IgnoreFields(Response{}, "TurnID")); diff != "" {
			t.Errorf("%q resolved differently (-first +second):\n%s", q, diff)
		}
	}
}
