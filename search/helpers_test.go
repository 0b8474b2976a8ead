package search

import (
	"context"
	"testing"

	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
	"github.com/poiesic/resolvit/storage/badger"
	"github.com/stretchr/testify/require"
)

func newTestCorpus(t *testing.T) (storage.KnowledgeRepository, *badger.Backend) {
	t.Helper()
	knowledge, turns, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		turns.Close()
		knowledge.Close()
		backend.Close()
	})
	return knowledge, backend
}

func seedFAQs(t *testing.T, repo storage.KnowledgeRepository) []*core.FAQEntry {
	t.Helper()
	added, err := repo.AddFAQs(context.Background(),
		&core.FAQEntry{
			Question: "How to create an Employee?",
			Answer:   "Employee > Employees > Create > Fill out the form",
			Category: "Employee",
		},
		&core.FAQEntry{
			Question: "How do I request leave?",
			Answer:   "Leave > Requests > New, then choose the leave type.",
			Category: "Leave",
		},
		&core.FAQEntry{
			Question: "How to update an employee record?",
			Answer:   "Employee > Employees > select the employee > Edit",
			Category: "Employee",
		},
	)
	require.NoError(t, err)
	return added
}

func seedDocuments(t *testing.T, repo storage.KnowledgeRepository) []*core.Document {
	t.Helper()
	added, err := repo.AddDocuments(context.Background(),
		&core.Document{
			Title:    "Creating employees",
			Body:     "Go to Employee > Employees > Create and fill out the form.",
			Category: "Employee",
			Vector:   []float32{1, 0},
		},
		&core.Document{
			Title:    "Payroll schedule",
			Body:     "Salaries are paid monthly.",
			Category: "Payroll",
			Vector:   []float32{0, 1},
		},
	)
	require.NoError(t, err)
	return added
}
