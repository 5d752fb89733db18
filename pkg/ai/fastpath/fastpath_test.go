package fastpath

import (
	"testing"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(nil, nil)

	tests := []struct {
		name        string
		query       string
		wantMatched bool
	}{
		{
			name:        "generic manual lookup",
			query:       "where can I find the inverter manual",
			wantMatched: true,
		},
		{
			name:        "how to question",
			query:       "How to reset a tripped breaker",
			wantMatched: true,
		},
		{
			name:        "maintenance procedure",
			query:       "battery maintenance procedure",
			wantMatched: true,
		},
		{
			name:        "uppercase still matches",
			query:       "WIRING DIAGRAM please",
			wantMatched: true,
		},
		{
			name:        "possessive blocks the fast path",
			query:       "where is my inverter manual",
			wantMatched: false,
		},
		{
			name:        "your blocks the fast path",
			query:       "what is your maintenance schedule",
			wantMatched: false,
		},
		{
			name:        "this system blocks the fast path",
			query:       "how do I troubleshoot this system",
			wantMatched: false,
		},
		{
			name:        "currently blocks the fast path",
			query:       "what procedure is currently running",
			wantMatched: false,
		},
		{
			name:        "status question never matches",
			query:       "what is the battery level",
			wantMatched: false,
		},
		{
			name:        "greeting never matches",
			query:       "hello there",
			wantMatched: false,
		},
		{
			name:        "empty query",
			query:       "",
			wantMatched: false,
		},
		{
			name:        "whitespace only",
			query:       "   ",
			wantMatched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.query)
			if got.Matched != tt.wantMatched {
				t.Errorf("Classify(%q).Matched = %v, want %v (reason: %s)", tt.query, got.Matched, tt.wantMatched, got.Reason)
			}
			if got.Reason == "" {
				t.Errorf("Classify(%q) returned empty reason", tt.query)
			}
		})
	}
}

// The exclusion list must win even when both lists match: a query using
// documentation vocabulary with system-specific phrasing is about THIS
// installation and needs the full router.
func TestClassifyExclusionWins(t *testing.T) {
	c := NewClassifier(nil, nil)

	queries := []string{
		"show me your troubleshooting guide",
		"my battery maintenance procedure",
		"our wiring documentation",
		"what does the manual say about current load",
	}

	for _, q := range queries {
		if got := c.Classify(q); got.Matched {
			t.Errorf("Classify(%q) matched, want exclusion to win (reason: %s)", q, got.Reason)
		}
	}
}

func TestClassifyCustomPatterns(t *testing.T) {
	c := NewClassifier([]string{"runbook"}, []string{"tonight"})

	if got := c.Classify("open the runbook"); !got.Matched {
		t.Errorf("custom doc pattern did not match: %s", got.Reason)
	}
	// Default patterns must be fully replaced, not merged.
	if got := c.Classify("where is the manual"); got.Matched {
		t.Error("default doc pattern still active after override")
	}
	if got := c.Classify("runbook for tonight"); got.Matched {
		t.Error("custom system pattern did not exclude")
	}
}
