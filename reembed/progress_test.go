package reembed

import (
	"bytes"
	"testing"

	"github.com/poiesic/resolvit/core"
	"github.com/stretchr/testify/assert"
)

func TestProgress_ReportsKindsSeparately(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, core.KnowledgeStats{FAQCount: 4, DocumentCount: 2}, 2)

	p.faqsDone(2, 0)
	assert.Contains(t, buf.String(), "FAQs: 2/4, documents: 0/2 (33.3%)")

	p.faqsDone(2, 1)
	p.documentsDone(2, 0)
	summary := p.finish()

	assert.Contains(t, buf.String(), "FAQs: 4/4, documents: 2/2 (100.0%)")
	assert.Equal(t, 4, summary.FAQs)
	assert.Equal(t, 2, summary.Documents)
	assert.Equal(t, 1, summary.Stale)
	assert.Positive(t, summary.Elapsed)
}

func TestProgress_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, core.KnowledgeStats{FAQCount: 10}, 5)

	p.faqsDone(2, 0)
	assert.Empty(t, buf.String())

	p.faqsDone(3, 0)
	assert.Contains(t, buf.String(), "FAQs: 5/10")
}

func TestProgress_CapsPercentage(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, core.KnowledgeStats{DocumentCount: 1}, 1)

	// A document imported mid-run.
	p.documentsDone(2, 0)
	assert.Contains(t, buf.String(), "documents: 2/1 (100.0%)")
}

func TestProgress_SnapshotKeepsPartialCounts(t *testing.T) {
	p := newProgress(&bytes.Buffer{}, core.KnowledgeStats{FAQCount: 3, DocumentCount: 3}, 10)
	p.faqsDone(3, 2)

	s := p.snapshot()
	assert.Equal(t, 3, s.FAQs)
	assert.Zero(t, s.Documents)
	assert.Equal(t, 2, s.Stale)
}
