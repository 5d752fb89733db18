package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"commandcenter-be/pkg/agent"
	"commandcenter-be/pkg/ai/fastpath"
	"commandcenter-be/pkg/llm"
	"commandcenter-be/pkg/rag"
	"commandcenter-be/pkg/store"
)

// Error kinds surfaced on RouteResult. User-facing text never contains them;
// they ride along for logging and turn metadata.
const (
	ErrKindClassificationTimeout = "classification_timeout"
	ErrKindRetrievalUnavailable  = "retrieval_unavailable"
	ErrKindHandlerError          = "handler_error"
)

const degradedSearchReply = "Documentation search is temporarily unavailable. I can still answer live status and planning questions."

// RouteResult is the terminal state of one routed query. Route never returns
// an error: every failure is folded into a structured reply here.
type RouteResult struct {
	Reply      string
	Handler    string // store.Handler* tag
	Decision   *Decision
	ErrorKind  string
	FastPathed bool
}

// KnowledgeEngine is the slice of the retrieval engine the router needs.
type KnowledgeEngine interface {
	Search(ctx context.Context, query string, limit int) (*rag.SearchResponse, error)
	FormatReply(resp *rag.SearchResponse) string
}

// Router decides, per query, between answering from the knowledge base,
// delegating to a specialist, or replying directly. The state machine is
// received -> classifying -> dispatched -> terminal; fast-path matches skip
// straight from received to dispatch.
type Router struct {
	llmProvider llm.LLMProvider
	engine      KnowledgeEngine
	status      agent.Handler
	planning    agent.Handler
	fastPath    *fastpath.Classifier
	maxAttempts int
	searchLimit int
	logger      *log.Logger
}

func NewRouter(
	llmProvider llm.LLMProvider,
	engine KnowledgeEngine,
	status agent.Handler,
	planning agent.Handler,
	fastPath *fastpath.Classifier,
	maxAttempts int,
	searchLimit int,
	logger *log.Logger,
) *Router {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if searchLimit <= 0 {
		searchLimit = 5
	}
	return &Router{
		llmProvider: llmProvider,
		engine:      engine,
		status:      status,
		planning:    planning,
		fastPath:    fastPath,
		maxAttempts: maxAttempts,
		searchLimit: searchLimit,
		logger:      logger,
	}
}

// Route classifies and dispatches one query. ctx carries the end-to-end
// budget; when it expires mid-flight the user gets a clarification reply,
// never a dead connection.
func (r *Router) Route(ctx context.Context, query string, state *store.WorkingState, history []llm.Message) *RouteResult {
	// 1. Fast path: cheap pattern check before any LLM call
	if match := r.fastPath.Classify(query); match.Matched {
		r.logger.Printf("[ROUTER] Fast-path match (%s): %s", match.Reason, truncateLog(query, 50))
		result := r.answerFromKB(ctx, query)
		if result.Handler == "" {
			result.Handler = store.HandlerFastPath
		}
		result.FastPathed = true
		return result
	}

	// 2. Classify with a bounded loop. Malformed output consumes an attempt;
	// the bound is what turned multi-minute hangs into clarification replies.
	decision := r.classify(ctx, query, state, history)
	if decision == nil {
		return r.clarify(state, ErrKindClassificationTimeout)
	}

	r.logger.Printf("[ROUTER] Decision: %s (confidence %.2f): %s",
		decision.Action, decision.Confidence, decision.Reason)

	// 3. Dispatch to exactly one downstream capability
	return r.dispatch(ctx, query, decision, history)
}

// classify runs the LLM classification step, at most maxAttempts times.
// Returns nil when the bound or the deadline is exhausted.
func (r *Router) classify(ctx context.Context, query string, state *store.WorkingState, history []llm.Message) *Decision {
	prompt := r.buildClassifierPrompt(query, state, history)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			r.logger.Printf("[ROUTER] Budget exhausted before attempt %d", attempt)
			return nil
		}

		response, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				r.logger.Printf("[ROUTER] Classification timed out on attempt %d", attempt)
				return nil
			}
			r.logger.Printf("[ROUTER] Classification attempt %d failed: %v", attempt, err)
			continue
		}

		decision, err := ParseDecision(response)
		if err != nil {
			r.logger.Printf("[ROUTER] Attempt %d produced invalid output: %v", attempt, err)
			continue
		}

		return decision
	}

	r.logger.Printf("[ROUTER] Classification bound (%d) exhausted", r.maxAttempts)
	return nil
}

// dispatch calls the single chosen capability and returns its output
// verbatim. Paraphrasing a specialist's answer silently drops structured
// metadata needed for attribution, so the router never rewrites it.
func (r *Router) dispatch(ctx context.Context, query string, decision *Decision, history []llm.Message) *RouteResult {
	// The argument has already passed the scalar coercion boundary; an empty
	// argument falls back to the user's own words.
	arg := decision.Argument
	if arg == "" && decision.Action != ActionRespondDirectly {
		arg = query
	}

	switch decision.Action {
	case ActionRespondDirectly:
		reply := arg
		if strings.TrimSpace(reply) == "" {
			reply = "I'm the assistant for this energy installation. Ask me about its documentation, current status, or planning."
		}
		return &RouteResult{
			Reply:    reply,
			Handler:  store.HandlerDirectReply,
			Decision: decision,
		}

	case ActionSearchKB:
		result := r.answerFromKB(ctx, arg)
		if result.Handler == "" {
			result.Handler = store.HandlerKB
		}
		result.Decision = decision
		return result

	case ActionDelegateStatus:
		return r.delegate(ctx, r.status, arg, decision, history)

	case ActionDelegatePlanning:
		return r.delegate(ctx, r.planning, arg, decision, history)
	}

	// Unreachable: ParseDecision rejects unknown actions.
	return r.clarify(nil, ErrKindClassificationTimeout)
}

func (r *Router) delegate(ctx context.Context, handler agent.Handler, query string, decision *Decision, history []llm.Message) *RouteResult {
	r.logger.Printf("[ROUTER] Delegating to %s handler", handler.Name())

	result, err := handler.Handle(ctx, query, history)
	if err != nil {
		// A dead budget is not a handler outage. Misfiling it as one would
		// also poison the audit stream the handler alerts are tuned on.
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			r.logger.Printf("[ROUTER] Budget expired during %s dispatch", handler.Name())
			res := r.clarify(nil, ErrKindClassificationTimeout)
			res.Decision = decision
			return res
		}
		r.logger.Printf("[ROUTER] Handler %s failed: %v", handler.Name(), err)
		return &RouteResult{
			Reply:     fmt.Sprintf("Sorry, I couldn't reach the %s service just now. Please try again in a moment.", handler.Name()),
			Handler:   handler.Name(),
			Decision:  decision,
			ErrorKind: ErrKindHandlerError,
		}
	}

	return &RouteResult{
		Reply:    result.Text,
		Handler:  handler.Name(),
		Decision: decision,
	}
}

func (r *Router) answerFromKB(ctx context.Context, query string) *RouteResult {
	resp, err := r.engine.Search(ctx, query, r.searchLimit)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			r.logger.Printf("[ROUTER] Budget expired during KB search")
			return r.clarify(nil, ErrKindClassificationTimeout)
		}
		if errors.Is(err, rag.ErrUnavailable) {
			return &RouteResult{
				Reply:     degradedSearchReply,
				ErrorKind: ErrKindRetrievalUnavailable,
			}
		}
		r.logger.Printf("[ROUTER] KB search failed: %v", err)
		return &RouteResult{
			Reply:     degradedSearchReply,
			ErrorKind: ErrKindRetrievalUnavailable,
		}
	}

	return &RouteResult{
		Reply: r.engine.FormatReply(resp),
	}
}

// clarify is the terminal fallback: bounded, honest, and never a hang.
func (r *Router) clarify(state *store.WorkingState, errKind string) *RouteResult {
	reply := "I'm not sure what you're asking for. Could you rephrase? For example, ask about the documentation, the current system status, or an energy plan."
	if state != nil && state.ClarifyStreak > 0 {
		reply = "Still not following, sorry. Try something concrete like \"show me the inverter manual\" or \"what's the battery level\"."
	}
	return &RouteResult{
		Reply:     reply,
		Handler:   store.HandlerClarify,
		ErrorKind: errKind,
	}
}

func (r *Router) buildClassifierPrompt(query string, state *store.WorkingState, history []llm.Message) string {
	var prompt strings.Builder

	prompt.WriteString("<system>\n")
	prompt.WriteString("You are the dispatcher for an energy-installation assistant. Your ONLY job is to pick how a query is handled.\n")
	prompt.WriteString("You do NOT answer status or planning questions yourself. You only classify.\n")
	prompt.WriteString("</system>\n\n")

	prompt.WriteString("<session_state>\n")
	if state != nil && state.LastHandler != "" {
		prompt.WriteString(fmt.Sprintf("LAST_HANDLER: %s\n", state.LastHandler))
		prompt.WriteString(fmt.Sprintf("LAST_QUERY: %s\n", truncateLog(state.LastQuery, 120)))
		prompt.WriteString("Follow-up questions usually belong to the same handler as the previous turn.\n")
	} else {
		prompt.WriteString("INITIAL_STATE: First query of this conversation.\n")
	}
	prompt.WriteString("</session_state>\n\n")

	if len(history) > 0 {
		prompt.WriteString("<recent_turns>\n")
		start := len(history) - 6
		if start < 0 {
			start = 0
		}
		for _, msg := range history[start:] {
			prompt.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, truncateLog(msg.Content, 200)))
		}
		prompt.WriteString("</recent_turns>\n\n")
	}

	prompt.WriteString("<user_query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_query>\n\n")

	prompt.WriteString("<action_definitions>\n")
	prompt.WriteString("Choose EXACTLY ONE action:\n\n")

	prompt.WriteString("delegate_status: User asks about the CURRENT state of the installation\n")
	prompt.WriteString("  - Battery level, solar output, load, temperatures, live readings\n")
	prompt.WriteString("  - argument: the question to forward, as a plain string\n\n")

	prompt.WriteString("delegate_planning: User asks for a recommendation, forecast, or optimization\n")
	prompt.WriteString("  - 'should we run the miners tonight?', 'plan tomorrow's usage'\n")
	prompt.WriteString("  - argument: the question to forward, as a plain string\n\n")

	prompt.WriteString("search_kb: User asks something answerable from the indexed documentation\n")
	prompt.WriteString("  - Manuals, procedures, specs, policies\n")
	prompt.WriteString("  - argument: the search query, as a plain string\n\n")

	prompt.WriteString("respond_directly: Reply yourself WITHOUT any tool. ALWAYS use this for:\n")
	prompt.WriteString("  - Questions about this assistant itself ('what can you do?')\n")
	prompt.WriteString("  - Off-topic or ambiguous queries ('who am I?')\n")
	prompt.WriteString("  - Greetings and small talk\n")
	prompt.WriteString("  - argument: the short reply text itself\n")
	prompt.WriteString("Never force these three categories into a tool.\n")
	prompt.WriteString("</action_definitions>\n\n")

	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON. The argument MUST be a plain string, never an object:\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"action\": \"delegate_status|delegate_planning|search_kb|respond_directly\",\n")
	prompt.WriteString("  \"argument\": \"string\",\n")
	prompt.WriteString("  \"confidence\": 0.95,\n")
	prompt.WriteString("  \"reason\": \"Brief explanation\"\n")
	prompt.WriteString("}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}
