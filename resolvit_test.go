package resolvit

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/resolvit/ai/mock"
	"github.com/poiesic/resolvit/config"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/ingestion"
	"github.com/poiesic/resolvit/reembed"
)

const knowledgeYAML = `faqs:
  - question: How to create an Employee?
    answer: Employee > Employees > Create > Fill out the form
    category: Employee
documents:
  - title: Payroll schedule
    body: Salaries are paid monthly on the last working day.
    category: Payroll
`

func openTestSystem(t *testing.T, settings *config.Settings) *System {
	t.Helper()
	sys, err := Open(settings, InMemory(), WithAIProvider(mock.NewMockProvider()), WithRewriter(mock.NewMockRewriter()))
	require.NoError(t, err)
	t.Cleanup(func() { sys.Close() })
	return sys
}

func TestOpen(t *testing.T) {
	t.Run("on disk", func(t *testing.T) {
		settings := config.Default()
		settings.Database.Path = filepath.Join(t.TempDir(), "kb")

		sys, err := Open(settings, WithAIProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, sys)
		defer sys.Close()

		assert.NotNil(t, sys.Resolver())
		assert.NotNil(t, sys.Store())
		assert.NotNil(t, sys.KnowledgeRepository())
		assert.NotNil(t, sys.ConversationRepository())
		assert.Same(t, settings, sys.Settings())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		settings := config.Default()
		settings.Database.Path = tmpFile

		sys, err := Open(settings, WithAIProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, sys)
	})

	t.Run("invalid settings", func(t *testing.T) {
		settings := config.Default()
		settings.Database.ConversationLog = "postgres"

		sys, err := Open(settings, InMemory(), WithAIProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, sys)
	})

	t.Run("sqlite conversation log", func(t *testing.T) {
		settings := config.Default()
		settings.Database.ConversationLog = config.ConversationLogSQLite
		settings.Database.SQLitePath = filepath.Join(t.TempDir(), "turns.sqlite")

		sys := openTestSystem(t, settings)
		assert.NotNil(t, sys.ConversationRepository())
	})
}

func TestOpen_StrategiesFollowSettings(t *testing.T) {
	settings := config.Default()
	settings.Search.EnableSemantic = false
	settings.Search.EnableEmbedding = false

	sys := openTestSystem(t, settings)

	assert.True(t, sys.Store().HasStrategy(core.StrategyKeyword))
	assert.False(t, sys.Store().HasStrategy(core.StrategyAISearch))
	assert.False(t, sys.Store().HasStrategy(core.StrategyEmbedding))
}

func TestSystem_Close(t *testing.T) {
	sys, err := Open(nil, InMemory(), WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)

	assert.NoError(t, sys.Close())
}

func TestSystem_FactoryMethods(t *testing.T) {
	sys := openTestSystem(t, nil)

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := sys.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create reembedder", func(t *testing.T) {
		r, err := sys.NewReembedder(reembed.DefaultConfig(), io.Discard)
		require.NoError(t, err)
		require.NotNil(t, r)
	})

	t.Run("can create server", func(t *testing.T) {
		srv, err := sys.NewServer()
		require.NoError(t, err)
		require.NotNil(t, srv)
	})
}

func TestSystem_ImportThenResolve(t *testing.T) {
	sys := openTestSystem(t, nil)
	ctx := context.Background()

	kf, err := ingestion.Parse([]byte(knowledgeYAML))
	require.NoError(t, err)

	pipeline, err := sys.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	result, err := pipeline.Ingest(ctx, kf)
	require.NoError(t, err)
	assert.Len(t, result.FAQs, 1)
	assert.Len(t, result.Documents, 1)
	pipeline.Wait()

	resp, err := sys.Resolver().Resolve(ctx, core.Query{
		Text:           "How to create an Employee?",
		UserID:         "u1",
		ConversationID: "c1",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "faq_search", resp.Strategy)
	assert.Equal(t, "Employee > Employees > Create > Fill out the form", resp.Text)

	turns, err := sys.ConversationRepository().GetTurns(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, resp.TurnID, turns[0].Id)
}
