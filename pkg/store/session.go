package store

// WorkingState is the in-memory routing context for one conversation. It is
// rebuilt from scratch when the cache entry expires; nothing here is a source
// of truth, the persisted turns are.
type WorkingState struct {
	ID string `json:"id"` // ChatSessionID

	// Last routing outcome, consulted by the classifier for follow-ups
	// ("and now?", "what about tomorrow?").
	LastHandler  string `json:"last_handler"`
	LastDecision string `json:"last_decision"`
	LastQuery    string `json:"last_query"`

	// Consecutive clarification replies. Used to vary the clarification
	// wording instead of repeating the same sentence at the user.
	ClarifyStreak int `json:"clarify_streak"`
}

// Handler tags recorded on working state and turn metadata.
const (
	HandlerFastPath    = "fast_path"
	HandlerStatus      = "status"
	HandlerPlanning    = "planning"
	HandlerKB          = "kb"
	HandlerDirectReply = "direct_reply"
	HandlerClarify     = "clarify"
)
