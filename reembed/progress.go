package reembed

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/resolvit/core"
)

// progress counts re-embedded FAQ entries and documents against the corpus
// totals and prints a running status line every reportInterval items.
type progress struct {
	w              io.Writer
	reportInterval int
	faqTotal       int
	docTotal       int
	summary        Summary
	lastReported   int
	start          time.Time
}

func newProgress(w io.Writer, stats core.KnowledgeStats, reportInterval int) *progress {
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &progress{
		w:              w,
		reportInterval: reportInterval,
		faqTotal:       stats.FAQCount,
		docTotal:       stats.DocumentCount,
		start:          time.Now(),
	}
}

// faqsDone records a processed FAQ batch. stale counts entries whose vectors
// were not stored because they changed during the run.
func (p *progress) faqsDone(processed, stale int) {
	p.summary.FAQs += processed
	p.summary.Stale += stale
	p.maybeReport()
}

// documentsDone records a processed document batch.
func (p *progress) documentsDone(processed, stale int) {
	p.summary.Documents += processed
	p.summary.Stale += stale
	p.maybeReport()
}

func (p *progress) processed() int {
	return p.summary.FAQs + p.summary.Documents
}

func (p *progress) maybeReport() {
	if p.processed()-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.processed()
	}
}

// finish prints the final status line and returns the run summary. Items
// added to the store mid-run can push the counts past the totals.
func (p *progress) finish() *Summary {
	p.report()
	fmt.Fprintln(p.w)
	return p.snapshot()
}

// snapshot returns the summary so far.
func (p *progress) snapshot() *Summary {
	s := p.summary
	s.Elapsed = time.Since(p.start)
	return &s
}

func (p *progress) report() {
	total := p.faqTotal + p.docTotal
	percentage := 100.0
	if total > 0 {
		percentage = min(float64(p.processed())/float64(total)*100.0, 100.0)
	}
	rate := float64(p.processed()) / time.Since(p.start).Seconds()
	fmt.Fprintf(p.w, "\rFAQs: %d/%d, documents: %d/%d (%.1f%%) - %.1f items/s",
		p.summary.FAQs, p.faqTotal, p.summary.Documents, p.docTotal, percentage, rate)
}
