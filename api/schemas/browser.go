// File: api/schemas/browser.go
package schemas

import "time"

// ActionType enumerates the actions the navigation agent can decide to
// perform on a step. This is the structured vocabulary the LLM responds with.
type ActionType string

const (
	ActionNavigate   ActionType = "navigate"   // Go to a URL. (Params: value)
	ActionClick      ActionType = "click"      // Click an element. (Params: selector or index)
	ActionInput      ActionType = "input"      // Type text into a field. (Params: selector/index, value)
	ActionScrollUp   ActionType = "scroll_up"  // Scroll the page up.
	ActionScrollDown ActionType = "scroll_down" // Scroll the page down.
	ActionWait       ActionType = "wait"       // Pause briefly for async content.
	ActionExtract    ActionType = "extract"    // Extract structured data from the current page.

	// ActionGetDomainContext fetches the accumulated context for the current
	// domain. The agent invokes it voluntarily; the system never injects the
	// stored context into the agent's prompts on its own.
	ActionGetDomainContext ActionType = "get_domain_context"

	ActionDone ActionType = "done" // Conclude the task.
)

// AgentAction is a single concrete step decided by the agent's LLM, including
// its parameters and the model's stated reasoning.
type AgentAction struct {
	Type      ActionType             `json:"type"`
	Selector  string                 `json:"selector,omitempty"` // CSS selector for UI-based actions.
	Index     int                    `json:"index,omitempty"`    // Numeric element index, when the page snapshot uses indices.
	Value     string                 `json:"value,omitempty"`    // Text to type, URL to open, or scroll direction.
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Rationale string                 `json:"rationale,omitempty"`
}

// ActionResult captures the outcome of executing one action.
type ActionResult struct {
	ExtractedContent string `json:"extracted_content,omitempty"`
	Error            string `json:"error,omitempty"`
	IsDone           bool   `json:"is_done,omitempty"`
	Success          *bool  `json:"success,omitempty"`
}

// PageState is a snapshot of the browser at the moment a step was decided.
type PageState struct {
	URL           string   `json:"url"`
	Title         string   `json:"title,omitempty"`
	BrowserErrors []string `json:"browser_errors,omitempty"`
}

// StepRecord describes one agent step: where the browser was, what the agent
// intended, what it did, and what came back. This is the event shape consumed
// by the domain tracker and persisted in the run history.
type StepRecord struct {
	Step       int            `json:"step"`
	State      PageState      `json:"state"`
	Goal       string         `json:"next_goal,omitempty"`
	Evaluation string         `json:"evaluation_previous_goal,omitempty"`
	Memory     string         `json:"memory,omitempty"`
	Actions    []AgentAction  `json:"actions,omitempty"`
	Results    []ActionResult `json:"results,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Verdict is the post-run judgement of whether the task actually succeeded.
// It is folded into the final domain-context refresh so the stored knowledge
// reflects outcomes, not just attempts.
type Verdict struct {
	Outcome        string `json:"verdict"`
	FailureReason  string `json:"failure_reason,omitempty"`
	ReachedCaptcha bool   `json:"reached_captcha,omitempty"`
	ImpossibleTask bool   `json:"impossible_task,omitempty"`
	Reasoning      string `json:"reasoning,omitempty"`
}

// UsageStats aggregates token consumption over a run.
type UsageStats struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RunHistory is the complete record of one task run.
type RunHistory struct {
	RunID       string       `json:"run_id"`
	Task        string       `json:"task"`
	Steps       []StepRecord `json:"steps"`
	FinalResult string       `json:"final_result,omitempty"`
	Verdict     *Verdict     `json:"verdict,omitempty"`
	Usage       *UsageStats  `json:"usage,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}

// LastResults returns the results of the step preceding stepNumber (1-based),
// or nil when there is no such step.
func (h *RunHistory) LastResults(stepNumber int) []ActionResult {
	if h == nil || stepNumber <= 1 || len(h.Steps) < stepNumber-1 {
		return nil
	}
	return h.Steps[stepNumber-2].Results
}

// FinalOrDefault returns the run's final result, or a fixed fallback when the
// run produced none. Missing history is reported, not treated as an error.
func (h *RunHistory) FinalOrDefault() string {
	if h == nil || h.FinalResult == "" {
		return "Task completed but no history is available"
	}
	return h.FinalResult
}
