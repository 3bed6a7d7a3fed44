// File: internal/agent/controller.go
package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/api/schemas"
	"github.com/avelasco-eng/ariadne/internal/config"
	"github.com/avelasco-eng/ariadne/internal/domaincontext"
	"github.com/avelasco-eng/ariadne/internal/history"
	"github.com/avelasco-eng/ariadne/internal/tasks"
)

// Browser is the subset of browser session behavior the controller drives.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Input(ctx context.Context, selector, value string) error
	Scroll(ctx context.Context, direction string) error
	PageText(ctx context.Context) (string, error)
	CaptureState(ctx context.Context) (schemas.PageState, error)
}

// Page text beyond this many runes is elided from the decision prompt.
const maxPageTextRunes = 12000

const waitActionPause = 2 * time.Second

// A regex to robustly extract a JSON object from a markdown code block.
var jsonBlockRegex = regexp.MustCompile(fmt.Sprintf("(?s)%s(?:json)?\\s*(.*?)\\s*%s", "```", "```"))

// Controller runs one task from start to verdict: it asks the LLM for the
// next actions, executes them against the browser, and feeds every step to
// the domain context tracker.
type Controller struct {
	browser     Browser
	llm         schemas.LLMClient
	tracker     *domaincontext.Tracker
	contextTool *domaincontext.Tool
	cfg         config.AgentConfig
	logger      *zap.Logger

	now func() time.Time
}

func NewController(
	browser Browser,
	llm schemas.LLMClient,
	tracker *domaincontext.Tracker,
	contextTool *domaincontext.Tool,
	cfg config.AgentConfig,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		browser:     browser,
		llm:         llm,
		tracker:     tracker,
		contextTool: contextTool,
		cfg:         cfg,
		logger:      logger.Named("controller"),
		now:         time.Now,
	}
}

// stepDecision is the JSON shape the navigation model responds with.
type stepDecision struct {
	Evaluation string                `json:"evaluation_previous_goal"`
	Memory     string                `json:"memory"`
	NextGoal   string                `json:"next_goal"`
	Actions    []schemas.AgentAction `json:"actions"`
}

// Run executes the task to completion or exhaustion and returns its history.
// The history is returned even when the run ends in an error, so callers can
// persist whatever was recorded before the failure.
func (c *Controller) Run(ctx context.Context, task tasks.Task) (*schemas.RunHistory, error) {
	run := &schemas.RunHistory{
		RunID:     uuid.NewString(),
		Task:      task.Description,
		StartedAt: c.now().UTC(),
	}
	defer func() { run.FinishedAt = c.now().UTC() }()

	// The task-end refresh and tracker reset must happen however the run
	// ends; an aborted or cancelled run still flushes whatever evidence it
	// gathered, and the next task starts from a clean tracker.
	defer c.finishTracking(ctx, run.RunID)

	c.logger.Info("Starting task run.",
		zap.String("run_id", run.RunID),
		zap.String("task", task.Name))

	if task.StartURL != "" {
		if err := c.browser.Navigate(ctx, task.StartURL); err != nil {
			return run, fmt.Errorf("failed to open start URL %q: %w", task.StartURL, err)
		}
	}

	consecutiveFailures := 0
	for step := 1; step <= c.cfg.MaxSteps; step++ {
		record, err := c.runStep(ctx, task, run, step)
		if err != nil {
			return run, err
		}
		run.Steps = append(run.Steps, record)

		if err := c.tracker.OnStep(ctx, domaincontext.StepEvent{
			URL:     record.State.URL,
			Summary: history.StepSummary(record),
		}); err != nil {
			return run, fmt.Errorf("domain context tracking failed on step %d: %w", step, err)
		}

		done, failed := stepOutcome(record)
		if done {
			for _, res := range record.Results {
				if res.IsDone && res.ExtractedContent != "" {
					run.FinalResult = res.ExtractedContent
				}
			}
			break
		}

		if failed {
			consecutiveFailures++
			if consecutiveFailures >= c.cfg.MaxFailures {
				run.FinalResult = fmt.Sprintf("Aborted after %d consecutive failing steps.", consecutiveFailures)
				break
			}
		} else {
			consecutiveFailures = 0
		}
	}

	c.judge(ctx, run)

	c.logger.Info("Task run finished.",
		zap.String("run_id", run.RunID),
		zap.Int("steps", len(run.Steps)),
		zap.Bool("has_result", run.FinalResult != ""))
	return run, nil
}

// finishTracking fires the tracker's task-end path. When the run's own
// context is already cancelled, the flush gets a short fresh one so the
// accumulated evidence is not thrown away with the task.
func (c *Controller) finishTracking(ctx context.Context, runID string) {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}
	if err := c.tracker.Finish(ctx); err != nil {
		c.logger.Error("Final domain context refresh failed.",
			zap.String("run_id", runID), zap.Error(err))
	}
}

func (c *Controller) runStep(ctx context.Context, task tasks.Task, run *schemas.RunHistory, step int) (schemas.StepRecord, error) {
	stepCtx := ctx
	if c.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, c.cfg.StepTimeout)
		defer cancel()
	}

	record := schemas.StepRecord{Step: step, Timestamp: c.now().UTC()}

	state, err := c.browser.CaptureState(stepCtx)
	if err != nil {
		return record, fmt.Errorf("failed to capture page state on step %d: %w", step, err)
	}
	record.State = state

	pageText, err := c.browser.PageText(stepCtx)
	if err != nil {
		c.logger.Warn("Failed to read page text.", zap.Int("step", step), zap.Error(err))
		pageText = ""
	}

	decision, err := c.decide(stepCtx, task, run, state, pageText, step)
	if err != nil {
		if ctx.Err() != nil {
			return record, ctx.Err()
		}
		c.logger.Warn("Step decision failed.", zap.Int("step", step), zap.Error(err))
		record.Results = append(record.Results, schemas.ActionResult{Error: err.Error()})
		return record, nil
	}

	record.Goal = decision.NextGoal
	record.Evaluation = decision.Evaluation
	record.Memory = decision.Memory

	actions := decision.Actions
	if limit := c.cfg.MaxActionsPerStep; limit > 0 && len(actions) > limit {
		c.logger.Debug("Truncating action batch.",
			zap.Int("step", step), zap.Int("requested", len(actions)), zap.Int("allowed", limit))
		actions = actions[:limit]
	}
	record.Actions = actions

	for _, action := range actions {
		result := c.execute(stepCtx, action, task, record.State)
		record.Results = append(record.Results, result)
		if result.Error != "" || result.IsDone {
			break
		}
	}
	return record, nil
}

func (c *Controller) decide(ctx context.Context, task tasks.Task, run *schemas.RunHistory, state schemas.PageState, pageText string, step int) (stepDecision, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n\n", task.Description)
	fmt.Fprintf(&sb, "Step %d of %d. At most %d actions this step.\n\n", step, c.cfg.MaxSteps, c.cfg.MaxActionsPerStep)
	fmt.Fprintf(&sb, "Current URL: %s\nPage title: %s\n", state.URL, state.Title)

	if len(state.BrowserErrors) > 0 {
		sb.WriteString("Recent browser errors:\n")
		for _, e := range state.BrowserErrors {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
	}

	if len(run.Steps) > 0 {
		last := run.Steps[len(run.Steps)-1]
		if last.Memory != "" {
			fmt.Fprintf(&sb, "\nYour notes so far: %s\n", last.Memory)
		}
		sb.WriteString("\nPrevious step results:\n")
		for _, res := range last.Results {
			switch {
			case res.Error != "":
				fmt.Fprintf(&sb, "- error: %s\n", res.Error)
			case res.ExtractedContent != "":
				fmt.Fprintf(&sb, "- %s\n", truncateRunes(res.ExtractedContent, 1500))
			default:
				sb.WriteString("- ok\n")
			}
		}
	}

	fmt.Fprintf(&sb, "\nVisible page text:\n%s\n\nDecide the next actions. Respond with a single JSON object.",
		truncateRunes(pageText, maxPageTextRunes))

	response, err := c.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: navigationSystemPrompt,
		UserPrompt:   sb.String(),
		Tier:         schemas.TierPowerful,
		Options:      schemas.GenerationOptions{Temperature: 0.3, ForceJSONFormat: true},
	})
	if err != nil {
		return stepDecision{}, fmt.Errorf("navigation model call failed: %w", err)
	}
	return parseDecision(response)
}

// Robustly extracts the decision JSON from the LLM's response, handling
// markdown code blocks or raw JSON.
func parseDecision(response string) (stepDecision, error) {
	response = strings.TrimSpace(response)
	var jsonStringToParse string

	matches := jsonBlockRegex.FindStringSubmatch(response)
	if len(matches) > 1 {
		jsonStringToParse = strings.TrimSpace(matches[1])
	} else {
		firstBracket := strings.Index(response, "{")
		lastBracket := strings.LastIndex(response, "}")
		if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
			jsonStringToParse = response[firstBracket : lastBracket+1]
		} else {
			jsonStringToParse = response
		}
	}

	if jsonStringToParse == "" {
		return stepDecision{}, fmt.Errorf("could not find any JSON in the model response")
	}

	var decision stepDecision
	if err := json.Unmarshal([]byte(jsonStringToParse), &decision); err != nil {
		return stepDecision{}, fmt.Errorf("failed to unmarshal decision JSON: %w", err)
	}
	if len(decision.Actions) == 0 {
		return stepDecision{}, fmt.Errorf("model decision contains no actions")
	}
	for _, action := range decision.Actions {
		if action.Type == "" {
			return stepDecision{}, fmt.Errorf("model decision contains an action without a type")
		}
	}
	return decision, nil
}

func (c *Controller) execute(ctx context.Context, action schemas.AgentAction, task tasks.Task, state schemas.PageState) schemas.ActionResult {
	c.logger.Debug("Executing action.",
		zap.String("type", string(action.Type)),
		zap.String("selector", action.Selector))

	switch action.Type {
	case schemas.ActionNavigate:
		if action.Value == "" {
			return schemas.ActionResult{Error: "navigate action has no URL"}
		}
		return asResult(c.browser.Navigate(ctx, action.Value))

	case schemas.ActionClick:
		if action.Selector == "" {
			return schemas.ActionResult{Error: "click action has no selector"}
		}
		return asResult(c.browser.Click(ctx, action.Selector))

	case schemas.ActionInput:
		if action.Selector == "" {
			return schemas.ActionResult{Error: "input action has no selector"}
		}
		return asResult(c.browser.Input(ctx, action.Selector, action.Value))

	case schemas.ActionScrollDown:
		return asResult(c.browser.Scroll(ctx, "down"))

	case schemas.ActionScrollUp:
		return asResult(c.browser.Scroll(ctx, "up"))

	case schemas.ActionWait:
		select {
		case <-ctx.Done():
			return schemas.ActionResult{Error: ctx.Err().Error()}
		case <-time.After(waitActionPause):
			return schemas.ActionResult{Success: boolPtr(true)}
		}

	case schemas.ActionExtract:
		return c.extract(ctx, task, state)

	case schemas.ActionGetDomainContext:
		summary, err := c.contextTool.GetDomainContext(state.URL)
		if err != nil {
			return schemas.ActionResult{Error: fmt.Sprintf("domain context lookup failed: %v", err)}
		}
		return schemas.ActionResult{ExtractedContent: summary, Success: boolPtr(true)}

	case schemas.ActionDone:
		return schemas.ActionResult{
			IsDone:           true,
			Success:          boolPtr(true),
			ExtractedContent: action.Value,
		}

	default:
		return schemas.ActionResult{Error: fmt.Sprintf("unknown action type %q", action.Type)}
	}
}

// extract asks the fast-tier model to pull structured data out of the page.
// The raw JSON document is stored on the result; entity conversion happens
// after the run, from the persisted history.
func (c *Controller) extract(ctx context.Context, task tasks.Task, state schemas.PageState) schemas.ActionResult {
	pageText, err := c.browser.PageText(ctx)
	if err != nil {
		return schemas.ActionResult{Error: fmt.Sprintf("failed to read page text: %v", err)}
	}

	prompt := fmt.Sprintf("Page URL: %s\nPage title: %s\n", state.URL, state.Title)
	if task.SignalType != "" {
		prompt += fmt.Sprintf("Expected signal type: %s\n", task.SignalType)
	}
	prompt += fmt.Sprintf("\nPage text:\n%s", truncateRunes(pageText, maxPageTextRunes))

	response, err := c.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: extractionSystemPrompt,
		UserPrompt:   prompt,
		Tier:         schemas.TierFast,
		Options:      schemas.GenerationOptions{Temperature: 0.1, ForceJSONFormat: true},
	})
	if err != nil {
		return schemas.ActionResult{Error: fmt.Sprintf("extraction model call failed: %v", err)}
	}
	return schemas.ActionResult{ExtractedContent: response, Success: boolPtr(true)}
}

// judge asks the fast-tier model for a post-run verdict and records it both
// on the history and, as one final piece of evidence, with the tracker so the
// stored domain knowledge reflects outcomes. Verdict failures degrade the
// run, they do not fail it.
func (c *Controller) judge(ctx context.Context, run *schemas.RunHistory) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s\n\nRun transcript (%d steps):\n", run.Task, len(run.Steps))
	for _, step := range run.Steps {
		fmt.Fprintf(&sb, "%s\n", history.StepSummary(step))
	}
	fmt.Fprintf(&sb, "\nFinal result: %s\n\nJudge the run. Respond with a single JSON object.", run.FinalOrDefault())

	response, err := c.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: verdictSystemPrompt,
		UserPrompt:   sb.String(),
		Tier:         schemas.TierFast,
		Options:      schemas.GenerationOptions{Temperature: 0, ForceJSONFormat: true},
	})
	if err != nil {
		c.logger.Warn("Verdict call failed.", zap.String("run_id", run.RunID), zap.Error(err))
		return
	}

	verdict, err := parseVerdict(response)
	if err != nil {
		c.logger.Warn("Verdict response unparseable.", zap.String("run_id", run.RunID), zap.Error(err))
		return
	}
	run.Verdict = verdict

	if len(run.Steps) > 0 {
		lastURL := run.Steps[len(run.Steps)-1].State.URL
		line := fmt.Sprintf("task verdict: %s", verdict.Outcome)
		if verdict.FailureReason != "" {
			line += " (" + verdict.FailureReason + ")"
		}
		if err := c.tracker.OnStep(ctx, domaincontext.StepEvent{URL: lastURL, Summary: line}); err != nil {
			c.logger.Warn("Failed to record verdict with tracker.", zap.Error(err))
		}
	}
}

func parseVerdict(response string) (*schemas.Verdict, error) {
	response = strings.TrimSpace(response)
	if matches := jsonBlockRegex.FindStringSubmatch(response); len(matches) > 1 {
		response = strings.TrimSpace(matches[1])
	}

	var verdict schemas.Verdict
	if err := json.Unmarshal([]byte(response), &verdict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verdict JSON: %w", err)
	}
	if verdict.Outcome == "" {
		return nil, fmt.Errorf("verdict response missing the 'verdict' field")
	}
	return &verdict, nil
}

func stepOutcome(record schemas.StepRecord) (done, failed bool) {
	for _, res := range record.Results {
		if res.IsDone {
			done = true
		}
		if res.Error != "" {
			failed = true
		}
	}
	return done, failed
}

func asResult(err error) schemas.ActionResult {
	if err != nil {
		return schemas.ActionResult{Error: err.Error()}
	}
	return schemas.ActionResult{Success: boolPtr(true)}
}

func boolPtr(b bool) *bool { return &b }

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "\n[... truncated ...]"
}
