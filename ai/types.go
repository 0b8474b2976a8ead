package ai

// Candidate is a knowledge item offered to a RelevanceScorer.
type Candidate struct {
	// Ref identifies the candidate in the model's reply. Callers choose it.
	Ref   string
	Title string
	Text  string
}

// Rating is a model's 0-10 relevance judgement for one candidate.
type Rating struct {
	Ref   string
	Score int
}

// Source is a knowledge item supplied to an AnswerGenerator.
type Source struct {
	Ref      string
	Kind     string // "faq" or "document"
	Title    string // FAQ question or document title
	Text     string // FAQ answer or document body
	Category string
}

// Exchange is one prior question/answer pair of the conversation.
type Exchange struct {
	Question string
	Answer   string
}

// AnswerRequest is the input to AnswerGenerator.GenerateAnswer.
type AnswerRequest struct {
	Question string
	History  []Exchange
	Sources  []Source
}

// GeneratedAnswer is the parsed reply of an AnswerGenerator.
type GeneratedAnswer struct {
	Answer     string
	Confidence float32  // Model self-assessment in [0,1]
	Citations  []string // Refs of the sources the answer relies on
}
