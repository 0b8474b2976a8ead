package resolve

// State is a step of the resolution state machine. States are entered in
// increasing order and never revisited.
type State int

const (
	StateStart State = iota
	StateFAQLookup
	StateDocLookup
	StateComposePrimary
	StateComposeFallback
	StateDoneSuccess
	StateDoneNoAnswer
	StateDoneUnavailable
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFAQLookup:
		return "faq_lookup"
	case StateDocLookup:
		return "doc_lookup"
	case StateComposePrimary:
		return "compose_primary"
	case StateComposeFallback:
		return "compose_fallback"
	case StateDoneSuccess:
		return "done_success"
	case StateDoneNoAnswer:
		return "done_no_answer"
	case StateDoneUnavailable:
		return "done_unavailable"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a resolution.
func (s State) Terminal() bool {
	return s >= StateDoneSuccess
}
