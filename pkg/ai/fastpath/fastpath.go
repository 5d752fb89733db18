package fastpath

import (
	"fmt"
	"strings"
)

// MatchResult is the fast-path verdict for one query.
type MatchResult struct {
	Matched bool
	Reason  string
}

// Classifier is the cheap pre-filter run before the LLM router. A query
// qualifies for the fast path only when it uses general documentation
// vocabulary AND contains no system-specific phrasing. The second set exists
// because "what is your minimum threshold" superficially looks like a
// documentation question but asks about this installation, whose answer lives
// in the always-loaded context, not the search index.
//
// Both lists are tunable configuration; the defaults below are a starting
// point, not an authority. Classify is pure: no I/O, never errors.
type Classifier struct {
	docPatterns    []string
	systemPatterns []string
}

// DefaultDocPatterns signal a generic documentation lookup.
var DefaultDocPatterns = []string{
	"manual",
	"documentation",
	"procedure",
	"how to",
	"how do i",
	"instructions",
	"guide",
	"spec sheet",
	"datasheet",
	"specification",
	"policy",
	"maintenance",
	"warranty",
	"install",
	"wiring",
	"troubleshoot",
}

// DefaultSystemPatterns signal the user means this installation specifically.
var DefaultSystemPatterns = []string{
	"your ",
	"my ",
	"our ",
	"this system",
	"the system",
	"right now",
	"currently",
	"current ",
}

func NewClassifier(docPatterns, systemPatterns []string) *Classifier {
	if len(docPatterns) == 0 {
		docPatterns = DefaultDocPatterns
	}
	if len(systemPatterns) == 0 {
		systemPatterns = DefaultSystemPatterns
	}
	return &Classifier{
		docPatterns:    lowered(docPatterns),
		systemPatterns: lowered(systemPatterns),
	}
}

// Classify decides whether the query can be answered by document search
// alone, skipping the LLM router.
func (c *Classifier) Classify(query string) MatchResult {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return MatchResult{Matched: false, Reason: "empty query"}
	}

	for _, sys := range c.systemPatterns {
		if strings.Contains(normalized, sys) {
			return MatchResult{
				Matched: false,
				Reason:  fmt.Sprintf("system-specific phrasing %q", strings.TrimSpace(sys)),
			}
		}
	}

	for _, doc := range c.docPatterns {
		if strings.Contains(normalized, doc) {
			return MatchResult{
				Matched: true,
				Reason:  fmt.Sprintf("documentation vocabulary %q", doc),
			}
		}
	}

	return MatchResult{Matched: false, Reason: "no documentation vocabulary"}
}

func lowered(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
