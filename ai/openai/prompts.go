package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/resolvit/ai"
)

// candidateExcerptRunes bounds how much of each candidate is shown to the scorer.
const candidateExcerptRunes = 600

const relevanceSystemPrompt = `You rate how well knowledge base entries answer an employee's HR question.

Output ONLY valid JSON. Do not include any preamble or explanation. Start your response directly with
the opening brace { and end with the closing brace }. Your output must follow this shape:

{"ratings":[{"ref":"<entry ref>","score":<integer 0-10>}]}

Rules:
- Rate every entry exactly once using its ref.
- 10 means the entry directly answers the question; 0 means it is unrelated.
- Judge only the entry text shown. Do not use outside knowledge.
- The JSON must parse without errors; no trailing commas and no extra keys.`

const answerSystemPrompt = `You are an HR help assistant. Answer the employee's question using ONLY the numbered sources.

Output ONLY valid JSON with this shape:

{"answer":"<answer text>","confidence":<number 0.0-1.0>,"citations":["<source ref>", ...]}

Rules:
- Use only facts stated in the sources. If the sources do not answer the question, set "answer" to an
  empty string and "confidence" to 0.
- Cite the ref of every source you used. Never cite a ref that was not given.
- Keep the answer short and direct. Preserve menu paths such as "Employee > Employees > Create" exactly.
- "confidence" is how sure you are that the answer is correct and fully supported by the sources.`

// buildRelevancePrompt renders the question and candidates for the scorer.
func buildRelevancePrompt(question string, candidates []ai.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nEntries:\n", scrubString(question))
	for _, c := range candidates {
		fmt.Fprintf(&b, "\n[%s] %s\n%s\n", c.Ref, scrubString(c.Title), truncate(scrubString(c.Text), candidateExcerptRunes))
	}
	return b.String()
}

// buildAnswerPrompt renders history, sources and question for the generator.
func buildAnswerPrompt(req ai.AnswerRequest) string {
	var b strings.Builder
	if len(req.History) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, h := range req.History {
			fmt.Fprintf(&b, "Employee: %s\nAssistant: %s\n", scrubString(h.Question), scrubString(h.Answer))
		}
		b.WriteString("\n")
	}
	b.WriteString("Sources:\n")
	for _, s := range req.Sources {
		label := "Document"
		if s.Kind == "faq" {
			label = "FAQ"
		}
		fmt.Fprintf(&b, "\n[%s] %s: %s\n", s.Ref, label, scrubString(s.Title))
		if s.Category != "" {
			fmt.Fprintf(&b, "Category: %s\n", s.Category)
		}
		fmt.Fprintf(&b, "%s\n", strings.TrimSpace(s.Text))
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", scrubString(req.Question))
	return b.String()
}
