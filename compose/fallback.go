package compose

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/resolvit/ai"
	"github.com/poiesic/resolvit/core"
)

// Defaults for Fallback.
const (
	DefaultRewriteTimeout  = 5 * time.Second
	DefaultMaxExcerptRunes = 600
)

// menuPath matches navigation paths such as "Employee > Employees > Create".
var menuPath = regexp.MustCompile(`\p{Lu}[\p{L}\p{N}]*(?: \p{Lu}[\p{L}\p{N}]*)*(?:\s*>\s*\p{Lu}[\p{L}\p{N}]*(?: \p{Lu}[\p{L}\p{N}]*)*)+`)

// Fallback answers from the top-ranked match without synthesis. An optional
// rewriter reformats the extracted text; any rewriter problem falls back to
// the verbatim text.
type Fallback struct {
	rewriter        ai.Rewriter
	rewriteTimeout  time.Duration
	maxExcerptRunes int
	logger          *slog.Logger
}

var _ Composer = (*Fallback)(nil)

// FallbackOption configures a Fallback composer.
type FallbackOption func(*Fallback)

// WithRewriter sets the small-model rewriter. Nil disables rewriting.
func WithRewriter(r ai.Rewriter) FallbackOption {
	return func(f *Fallback) {
		f.rewriter = r
	}
}

// WithRewriteTimeout bounds a single rewrite call.
func WithRewriteTimeout(d time.Duration) FallbackOption {
	return func(f *Fallback) {
		if d > 0 {
			f.rewriteTimeout = d
		}
	}
}

// WithMaxExcerptRunes bounds the excerpt taken from long documents.
func WithMaxExcerptRunes(n int) FallbackOption {
	return func(f *Fallback) {
		if n > 0 {
			f.maxExcerptRunes = n
		}
	}
}

// WithFallbackLogger sets a custom logger.
func WithFallbackLogger(logger *slog.Logger) FallbackOption {
	return func(f *Fallback) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFallback creates a fallback composer.
func NewFallback(opts ...FallbackOption) *Fallback {
	f := &Fallback{
		rewriteTimeout:  DefaultRewriteTimeout,
		maxExcerptRunes: DefaultMaxExcerptRunes,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "fallback-composer")
	return f
}

// Name returns NameFallback.
func (f *Fallback) Name() string { return NameFallback }

// Compose answers from the top-ranked match. Its confidence is that match's
// score. The only error is ErrNoMatches.
func (f *Fallback) Compose(ctx context.Context, query core.Query, matches []core.MatchResult) (*core.ComposerOutcome, error) {
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}
	ranked := core.SortMatches(append([]core.MatchResult(nil), matches...))
	top := ranked[0]

	text := f.extract(query.Text, top.Item)
	if f.rewriter != nil {
		text = f.rewrite(ctx, query.Text, text)
	}

	return &core.ComposerOutcome{
		Success:    true,
		Text:       text,
		Confidence: core.ClampScore(top.Score),
		Cited:      []core.MatchResult{top},
		Composer:   NameFallback,
	}, nil
}

func (f *Fallback) rewrite(ctx context.Context, question, text string) string {
	rctx, cancel := context.WithTimeout(ctx, f.rewriteTimeout)
	defer cancel()

	out, err := f.rewriter.Rewrite(rctx, question, text)
	switch {
	case err != nil:
		f.logger.Warn("rewrite failed; using extracted text", "err", err)
		return text
	case strings.TrimSpace(out) == "":
		f.logger.Warn("rewrite returned empty text; using extracted text")
		return text
	case !preservesMenuPaths(text, out):
		f.logger.Warn("rewrite altered a menu path; using extracted text")
		return text
	}
	return strings.TrimSpace(out)
}

// extract returns the FAQ answer, or the document excerpt most relevant to
// the question.
func (f *Fallback) extract(question string, item core.KnowledgeItem) string {
	text := strings.TrimSpace(item.Text())
	if item.Kind() == core.ItemKindFAQ || utf8.RuneCountInString(text) <= f.maxExcerptRunes {
		return text
	}
	return bestExcerpt(question, text, f.maxExcerptRunes)
}

// bestExcerpt starts at the sentence sharing the most words with question
// (earliest on ties) and appends following sentences while they fit.
func bestExcerpt(question, text string, maxRunes int) string {
	sentences := splitSentences(text)
	queryWords := wordSet(question)

	best, bestHits := 0, -1
	for i, s := range sentences {
		hits := 0
		for w := range wordSet(s) {
			if _, ok := queryWords[w]; ok {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
		}
	}

	var b strings.Builder
	for _, s := range sentences[best:] {
		if b.Len() > 0 && utf8.RuneCountInString(b.String())+1+utf8.RuneCountInString(s) > maxRunes {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	out := b.String()
	if utf8.RuneCountInString(out) > maxRunes {
		out = string([]rune(out)[:maxRunes])
	}
	return strings.TrimSpace(out)
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		end := r == '\n' || ((r == '.' || r == '!' || r == '?') && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])))
		if !end {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func wordSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

// preservesMenuPaths reports whether every navigation path in original
// appears unchanged in rewritten.
func preservesMenuPaths(original, rewritten string) bool {
	for _, p := range menuPath.FindAllString(original, -1) {
		if !strings.Contains(rewritten, strings.TrimSpace(p)) {
			return false
		}
	}
	return true
}
