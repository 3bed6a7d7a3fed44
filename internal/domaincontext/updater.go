// File: internal/domaincontext/updater.go
package domaincontext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/api/schemas"
	"github.com/avelasco-eng/ariadne/internal/config"
)

// noPriorKnowledge is the canonical marker placed in the refresh prompt when a
// domain has never been summarized before.
const noPriorKnowledge = "(no prior knowledge of this domain)"

// Summarizer is the narrow slice of the LLM client the updater depends on.
type Summarizer interface {
	Generate(ctx context.Context, req schemas.GenerationRequest) (string, error)
}

// Updater recomputes a domain's rolling summary from its persisted prior
// value plus fresh evidence. The new summary describes cumulative knowledge,
// not the delta: each refresh consumes the previous refresh's output as its
// own input.
type Updater struct {
	store  *Store
	llm    Summarizer
	cfg    config.DomainContextConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewUpdater wires an updater to its store and summarization client.
func NewUpdater(store *Store, llm Summarizer, cfg config.DomainContextConfig, logger *zap.Logger) *Updater {
	return &Updater{
		store:  store,
		llm:    llm,
		cfg:    cfg,
		logger: logger.Named("context_updater"),
		now:    time.Now,
	}
}

const updaterSystemPrompt = `You maintain a compact knowledge base about websites for a web navigation agent.
Given the agent's existing knowledge of a domain and a list of recent observations from navigating it,
write a single updated summary of everything known about the domain.

Rules:
- Merge, do not append: produce one coherent summary, with the most durable facts first.
- Keep site structure, login/paywall behavior, useful URLs, and navigation pitfalls.
- Drop transient details (timestamps, one-off page content) unless they reveal how the site works.
- Plain text only. Stay under %d characters.`

// Refresh produces and persists a new record for domain. The prior summary is
// read from the store, never taken from caller memory, so a refresh later in
// the run always builds on the last committed state.
//
// An empty evidence slice means the trigger condition was evaluated wrongly
// upstream; it fails with InvalidTriggerError before any LLM call. A failed
// summarization returns RefreshFailedError and leaves the prior record
// untouched.
func (u *Updater) Refresh(ctx context.Context, domain string, evidence []string) (Record, error) {
	if len(evidence) == 0 {
		return Record{}, &InvalidTriggerError{Domain: domain}
	}

	prior, found, err := u.store.Get(domain)
	if err != nil {
		return Record{}, err
	}

	priorSummary := noPriorKnowledge
	if found && prior.Summary != "" {
		priorSummary = prior.Summary
	}

	var sb strings.Builder
	sb.WriteString("Domain: ")
	sb.WriteString(domain)
	sb.WriteString("\n\nExisting knowledge:\n")
	sb.WriteString(priorSummary)
	sb.WriteString("\n\nRecent observations (oldest first):\n")
	for i, item := range evidence {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
	}
	sb.WriteString("\nUpdated summary:")

	summary, err := u.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: fmt.Sprintf(updaterSystemPrompt, u.cfg.MaxLength),
		UserPrompt:   sb.String(),
		Tier:         schemas.TierFast,
		Options: schemas.GenerationOptions{
			Temperature: 0.2,
		},
	})
	if err != nil {
		u.logger.Warn("Summarization call failed; prior context preserved.",
			zap.String("domain", domain),
			zap.Int("evidence_items", len(evidence)),
			zap.Error(err))
		return Record{}, &RefreshFailedError{Domain: domain, Err: err}
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		err := fmt.Errorf("summarizer returned an empty summary")
		u.logger.Warn("Summarization call returned no content; prior context preserved.",
			zap.String("domain", domain))
		return Record{}, &RefreshFailedError{Domain: domain, Err: err}
	}

	rec := Record{
		Domain:      domain,
		Summary:     truncateTail(summary, u.cfg.MaxLength),
		VisitCount:  prior.VisitCount + 1,
		LastUpdated: u.now(),
	}
	if err := u.store.Put(domain, rec); err != nil {
		return Record{}, err
	}

	u.logger.Info("Refreshed domain context.",
		zap.String("domain", domain),
		zap.Int("visit_count", rec.VisitCount),
		zap.Int("evidence_items", len(evidence)),
		zap.Int("summary_len", len(rec.Summary)))
	return rec, nil
}

// truncateTail bounds s to max characters, dropping from the tail. The head
// carries the earliest-established, highest-value facts and is always kept.
func truncateTail(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
