package router

import (
	"testing"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		wantAction   Action
		wantArgument string
		wantErr      bool
	}{
		{
			name:         "clean JSON",
			response:     `{"action": "delegate_status", "argument": "battery level", "confidence": 0.9, "reason": "live reading"}`,
			wantAction:   ActionDelegateStatus,
			wantArgument: "battery level",
		},
		{
			name:         "JSON wrapped in prose",
			response:     "Sure, here is my decision:\n```json\n{\"action\": \"search_kb\", \"argument\": \"inverter fault codes\"}\n```\nDone.",
			wantAction:   ActionSearchKB,
			wantArgument: "inverter fault codes",
		},
		{
			name:         "action case and whitespace normalized",
			response:     `{"action": " Respond_Directly ", "argument": "Hello!"}`,
			wantAction:   ActionRespondDirectly,
			wantArgument: "Hello!",
		},
		{
			name:         "missing argument becomes empty string",
			response:     `{"action": "delegate_planning"}`,
			wantAction:   ActionDelegatePlanning,
			wantArgument: "",
		},
		{
			name:         "numeric argument tolerated",
			response:     `{"action": "search_kb", "argument": 42}`,
			wantAction:   ActionSearchKB,
			wantArgument: "42",
		},
		{
			name:     "dict-shaped argument rejected",
			response: `{"action": "delegate_status", "argument": {"query": "battery level"}}`,
			wantErr:  true,
		},
		{
			name:     "array argument rejected",
			response: `{"action": "search_kb", "argument": ["a", "b"]}`,
			wantErr:  true,
		},
		{
			name:     "unknown action rejected",
			response: `{"action": "delegate_weather", "argument": "forecast"}`,
			wantErr:  true,
		},
		{
			name:     "no JSON at all",
			response: "I think you should ask the status service.",
			wantErr:  true,
		},
		{
			name:     "truncated JSON",
			response: `{"action": "search_kb", "argument": "inver`,
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecision(tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecision(%q) = %+v, want error", tt.response, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecision(%q) error: %v", tt.response, err)
			}
			if got.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", got.Action, tt.wantAction)
			}
			if got.Argument != tt.wantArgument {
				t.Errorf("Argument = %q, want %q", got.Argument, tt.wantArgument)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"surrounded by text", `noise {"a": 1} more noise`, `{"a": 1}`},
		{"nested braces kept", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"no braces", "plain text", ""},
		{"only open brace", "{oops", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.response); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.response, got, tt.want)
			}
		})
	}
}
