package constant

const (
	ChatTurnRoleUser      = "user"
	ChatTurnRoleAssistant = "assistant"

	// HistoryWindowTurns bounds how much transcript is replayed to the
	// classifier. Older turns only matter through the working state.
	HistoryWindowTurns = 6
)
