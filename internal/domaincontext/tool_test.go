// internal/domaincontext/tool_test.go
package domaincontext

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestTool_EmptyStoreReturnsSentinel(t *testing.T) {
	store := newTestStore(t)
	tool := NewTool(store, zaptest.NewLogger(t))

	got, err := tool.GetDomainContext("vogue.com")
	require.NoError(t, err, "a missing record is a normal answer, not an error")
	assert.Equal(t, NoPriorContext, got)
}

func TestTool_ReturnsStoredSummary(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Put("vogue.com", Record{
		Domain:      "vogue.com",
		Summary:     "Fashion magazine. Trends section is under /fashion.",
		VisitCount:  3,
		LastUpdated: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}))
	tool := NewTool(store, zaptest.NewLogger(t))

	got, err := tool.GetDomainContext("vogue.com")
	require.NoError(t, err)
	assert.Contains(t, got, "vogue.com")
	assert.Contains(t, got, "visits: 3")
	assert.Contains(t, got, "2026-08-30")
	assert.Contains(t, got, "Trends section is under /fashion.")
}

func TestTool_AcceptsFullURLs(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Put("vogue.com", Record{
		Domain: "vogue.com", Summary: "known site", VisitCount: 1,
	}))
	tool := NewTool(store, zaptest.NewLogger(t))

	got, err := tool.GetDomainContext("https://www.vogue.com/fashion/trends")
	require.NoError(t, err)
	assert.Contains(t, got, "known site")
}

func TestTool_UnresolvableInputReturnsSentinel(t *testing.T) {
	store := newTestStore(t)
	tool := NewTool(store, zaptest.NewLogger(t))

	got, err := tool.GetDomainContext("about:blank")
	require.NoError(t, err)
	assert.Equal(t, NoPriorContext, got)
}

func TestTool_CorruptStoreSurfaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domain_contexts.json")
	require.NoError(t, os.WriteFile(path, []byte("??"), 0o644))
	store := NewStore(path, time.Hour, zaptest.NewLogger(t))
	tool := NewTool(store, zaptest.NewLogger(t))

	_, err := tool.GetDomainContext("vogue.com")
	var corrupt *CorruptStateError
	assert.ErrorAs(t, err, &corrupt)
}
