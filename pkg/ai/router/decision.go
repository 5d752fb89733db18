package router

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is the single dispatch target the classifier must choose.
type Action string

const (
	ActionDelegateStatus   Action = "delegate_status"
	ActionDelegatePlanning Action = "delegate_planning"
	ActionSearchKB         Action = "search_kb"
	ActionRespondDirectly  Action = "respond_directly"
)

// Decision is the structured classification output. Argument is the query to
// hand downstream (or the direct reply text for respond_directly); Confidence
// and Reason are logging-only.
type Decision struct {
	Action     Action  `json:"action"`
	Argument   string  `json:"argument"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// rawDecision defers argument decoding so a dict-shaped argument (a known
// failure mode of LLM tool output) is rejected explicitly instead of blowing
// up the unmarshal with a confusing type error.
type rawDecision struct {
	Action     string          `json:"action"`
	Argument   json.RawMessage `json:"argument"`
	Confidence float64         `json:"confidence"`
	Reason     string          `json:"reason"`
}

// ParseDecision extracts and validates the classifier's JSON output. Any
// malformed shape is an error; the router counts it against the attempt
// bound rather than retrying blindly.
func ParseDecision(response string) (*Decision, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in classifier output")
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	action := Action(strings.ToLower(strings.TrimSpace(raw.Action)))
	switch action {
	case ActionDelegateStatus, ActionDelegatePlanning, ActionSearchKB, ActionRespondDirectly:
	default:
		return nil, fmt.Errorf("unknown action %q", raw.Action)
	}

	argument, err := coerceArgument(raw.Argument)
	if err != nil {
		return nil, err
	}

	return &Decision{
		Action:     action,
		Argument:   argument,
		Confidence: raw.Confidence,
		Reason:     raw.Reason,
	}, nil
}

// coerceArgument normalizes the argument to a plain scalar string. This is
// the strict boundary before dispatch: structured objects and arrays fail
// closed here, they are never forwarded to a handler.
func coerceArgument(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	// Tolerate numeric scalars; some models emit bare numbers.
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strings.TrimSpace(string(raw)), nil
	}

	return "", fmt.Errorf("argument is not a scalar string: %s", truncateLog(string(raw), 80))
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

// truncateLog truncates string for logging
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
