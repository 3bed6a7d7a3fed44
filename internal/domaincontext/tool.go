// File: internal/domaincontext/tool.go
package domaincontext

import (
	"fmt"

	"go.uber.org/zap"
)

// NoPriorContext is the sentinel returned when a domain has no stored
// context. Absence is a normal answer, not an error.
const NoPriorContext = "No prior context is stored for this domain."

// Tool is the read-side contract exposed to the agent's decision loop. The
// agent calls it voluntarily as one of its actions; stored context is never
// injected into the agent's prompts by the system.
type Tool struct {
	store  *Store
	logger *zap.Logger
}

// NewTool creates the context lookup tool over a store.
func NewTool(store *Store, logger *zap.Logger) *Tool {
	return &Tool{
		store:  store,
		logger: logger.Named("context_tool"),
	}
}

// GetDomainContext returns the persisted summary for domain, accepting
// either a bare domain or a full URL. A missing record yields the
// NoPriorContext sentinel; only store corruption or I/O failures return an
// error.
func (t *Tool) GetDomainContext(domain string) (string, error) {
	key := RegistrableDomain(domain)
	if key == "" {
		return NoPriorContext, nil
	}

	rec, found, err := t.store.Get(key)
	if err != nil {
		return "", err
	}
	if !found || rec.Summary == "" {
		t.logger.Debug("No stored context for domain.", zap.String("domain", key))
		return NoPriorContext, nil
	}

	return fmt.Sprintf("Known context for %s (visits: %d, updated: %s):\n%s",
		key, rec.VisitCount, rec.LastUpdated.Format("2006-01-02"), rec.Summary), nil
}
