// File: internal/domaincontext/tracker.go
package domaincontext

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/internal/config"
)

// StepEvent is one observed navigation step: where the agent was and a short
// summary of what it did and learned there.
type StepEvent struct {
	URL     string
	Summary string
}

// Tracker is the per-run state machine that watches navigation steps, buffers
// bounded per-domain evidence, and decides when to refresh a domain's stored
// context. It never mutates records itself; all writes go through the
// updater.
//
// A tracker belongs to exactly one running task and is not safe for
// concurrent use; steps for a task arrive strictly in order.
type Tracker struct {
	updater *Updater
	cfg     config.DomainContextConfig
	logger  *zap.Logger

	currentDomain    string
	stepsSinceUpdate int
	domainSteps      int
	evidence         []string
}

// NewTracker creates a tracker for a single task run.
func NewTracker(updater *Updater, cfg config.DomainContextConfig, logger *zap.Logger) *Tracker {
	return &Tracker{
		updater: updater,
		cfg:     cfg,
		logger:  logger.Named("domain_tracker"),
	}
}

// OnStep feeds one navigation step into the state machine. A step whose URL
// resolves to a new domain first forces an exit-refresh of the outgoing
// domain; a long stay on one domain is refreshed every RefreshSteps steps
// once the minimum-evidence floor is met.
//
// Only store corruption and persistence failures are returned; a failed
// summarization is logged and the run continues with evidence intact.
func (t *Tracker) OnStep(ctx context.Context, ev StepEvent) error {
	if !t.cfg.Enabled {
		return nil
	}
	domain := RegistrableDomain(ev.URL)
	if domain == "" {
		// Non-navigational steps count as evidence for the active domain.
		// With no domain active yet there is nowhere to attach them.
		if t.currentDomain == "" {
			t.logger.Debug("Dropping step with no resolvable domain; tracker is idle.")
			return nil
		}
		domain = t.currentDomain
	}

	if t.currentDomain != "" && domain != t.currentDomain {
		if err := t.refreshCurrent(ctx, "domain_exit"); err != nil {
			return err
		}
		t.resetFor(domain)
	} else if t.currentDomain == "" {
		t.resetFor(domain)
	}

	t.appendEvidence(ev.Summary)
	t.stepsSinceUpdate++
	t.domainSteps++

	if t.stepsSinceUpdate >= t.cfg.RefreshSteps && t.domainSteps >= t.cfg.MinStepsForUpdate {
		if err := t.refreshCurrent(ctx, "refresh_interval"); err != nil {
			return err
		}
	}
	return nil
}

// Finish fires the task-end trigger for whatever domain is still active with
// non-empty evidence, then discards all ephemeral state. It is also the
// best-effort path on cancellation, so summarization failures are only
// logged.
func (t *Tracker) Finish(ctx context.Context) error {
	defer func() {
		t.currentDomain = ""
		t.stepsSinceUpdate = 0
		t.domainSteps = 0
		t.evidence = nil
	}()

	if t.currentDomain == "" || len(t.evidence) == 0 {
		return nil
	}
	return t.refreshCurrent(ctx, "task_end")
}

// CurrentDomain reports the domain the tracker is currently accumulating
// evidence for, or "" when idle.
func (t *Tracker) CurrentDomain() string { return t.currentDomain }

// EvidenceCount reports the size of the current evidence buffer.
func (t *Tracker) EvidenceCount() int { return len(t.evidence) }

func (t *Tracker) appendEvidence(summary string) {
	if summary == "" {
		return
	}
	t.evidence = append(t.evidence, summary)
	if max := t.cfg.MaxHistoryItems; max > 0 && len(t.evidence) > max {
		// Evict oldest first; the refresh wants the most recent window.
		t.evidence = t.evidence[len(t.evidence)-max:]
	}
}

func (t *Tracker) resetFor(domain string) {
	t.currentDomain = domain
	t.stepsSinceUpdate = 0
	t.domainSteps = 0
	t.evidence = t.evidence[:0]
}

// refreshCurrent invokes the updater for the active domain. On success the
// counters reset and the buffer clears; on a summarization failure they are
// left intact so the next trigger retries with accumulated evidence. Store
// corruption and persistence errors abort the run.
func (t *Tracker) refreshCurrent(ctx context.Context, trigger string) error {
	if len(t.evidence) == 0 {
		return nil
	}

	evidence := make([]string, len(t.evidence))
	copy(evidence, t.evidence)

	_, err := t.updater.Refresh(ctx, t.currentDomain, evidence)
	if err != nil {
		var refreshErr *RefreshFailedError
		if errors.As(err, &refreshErr) {
			t.logger.Warn("Context refresh failed; evidence retained for retry.",
				zap.String("domain", t.currentDomain),
				zap.String("trigger", trigger),
				zap.Int("evidence_items", len(evidence)),
				zap.Error(err))
			return nil
		}
		t.logger.Error("Context refresh hit a fatal store error.",
			zap.String("domain", t.currentDomain),
			zap.String("trigger", trigger),
			zap.Error(err))
		return err
	}

	t.stepsSinceUpdate = 0
	t.domainSteps = 0
	t.evidence = t.evidence[:0]
	t.logger.Debug("Context refresh committed.",
		zap.String("domain", t.currentDomain),
		zap.String("trigger", trigger))
	return nil
}
