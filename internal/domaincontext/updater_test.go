// internal/domaincontext/updater_test.go
package domaincontext

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/avelasco-eng/ariadne/api/schemas"
	"github.com/avelasco-eng/ariadne/internal/config"
)

// fakeSummarizer is a deterministic summarizer for tests. Each call records
// the prompt it received and returns either a canned error or a numbered
// summary.
type fakeSummarizer struct {
	calls   int
	prompts []string
	respond func(call int, req schemas.GenerationRequest) (string, error)
}

func (f *fakeSummarizer) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, req.UserPrompt)
	if f.respond != nil {
		return f.respond(f.calls, req)
	}
	return fmt.Sprintf("summary-%d", f.calls), nil
}

func testDCConfig() config.DomainContextConfig {
	return config.DomainContextConfig{
		Enabled:           true,
		RefreshSteps:      10,
		MinStepsForUpdate: 3,
		MaxHistoryItems:   15,
		MaxLength:         2000,
		CacheTTL:          time.Hour,
	}
}

func newTestUpdater(t *testing.T, llm Summarizer, cfg config.DomainContextConfig) (*Updater, *Store) {
	t.Helper()
	store := newTestStore(t)
	return NewUpdater(store, llm, cfg, zaptest.NewLogger(t)), store
}

func TestUpdater_FirstRefreshCreatesRecord(t *testing.T) {
	llm := &fakeSummarizer{}
	updater, store := newTestUpdater(t, llm, testDCConfig())

	rec, err := updater.Refresh(context.Background(), "vogue.com", []string{"saw homepage", "clicked trends"})
	require.NoError(t, err)

	assert.Equal(t, "vogue.com", rec.Domain)
	assert.Equal(t, "summary-1", rec.Summary)
	assert.Equal(t, 1, rec.VisitCount)
	assert.False(t, rec.LastUpdated.IsZero())

	// The prompt for a first refresh carries the no-prior marker and all
	// evidence items in order.
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], noPriorKnowledge)
	assert.Contains(t, llm.prompts[0], "1. saw homepage")
	assert.Contains(t, llm.prompts[0], "2. clicked trends")

	got, found, err := store.Get("vogue.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec, got)
}

func TestUpdater_RecursionUsesPersistedPrior(t *testing.T) {
	llm := &fakeSummarizer{}
	updater, store := newTestUpdater(t, llm, testDCConfig())
	ctx := context.Background()

	_, err := updater.Refresh(ctx, "vogue.com", []string{"e1"})
	require.NoError(t, err)

	_, err = updater.Refresh(ctx, "vogue.com", []string{"e2"})
	require.NoError(t, err)

	// The second refresh must consume the first refresh's output, not the
	// pre-first state.
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "summary-1")
	assert.NotContains(t, llm.prompts[1], noPriorKnowledge)

	// Overwriting the store out-of-band must be visible to the next refresh:
	// the prior comes from persisted state, never a stale in-memory copy.
	require.NoError(t, store.Put("vogue.com", Record{
		Domain: "vogue.com", Summary: "externally written prior", VisitCount: 7,
	}))

	rec, err := updater.Refresh(ctx, "vogue.com", []string{"e3"})
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[2], "externally written prior")
	assert.Equal(t, 8, rec.VisitCount)
}

func TestUpdater_LengthInvariant(t *testing.T) {
	cfg := testDCConfig()
	cfg.MaxLength = 50

	long := strings.Repeat("abcdefghij", 20) // 200 chars
	llm := &fakeSummarizer{respond: func(int, schemas.GenerationRequest) (string, error) {
		return long, nil
	}}
	updater, _ := newTestUpdater(t, llm, cfg)

	rec, err := updater.Refresh(context.Background(), "vogue.com", []string{"e1"})
	require.NoError(t, err)

	assert.Len(t, rec.Summary, 50)
	assert.Equal(t, long[:50], rec.Summary, "truncation keeps the head, drops the tail")
}

func TestUpdater_FailurePreservesPriorRecord(t *testing.T) {
	llm := &fakeSummarizer{}
	updater, store := newTestUpdater(t, llm, testDCConfig())
	ctx := context.Background()

	prior, err := updater.Refresh(ctx, "vogue.com", []string{"e1"})
	require.NoError(t, err)

	llm.respond = func(int, schemas.GenerationRequest) (string, error) {
		return "", errors.New("model timeout")
	}
	_, err = updater.Refresh(ctx, "vogue.com", []string{"e2"})
	require.Error(t, err)

	var refreshErr *RefreshFailedError
	require.ErrorAs(t, err, &refreshErr)
	assert.Equal(t, "vogue.com", refreshErr.Domain)

	got, found, err := store.Get("vogue.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, cmp.Diff(prior, got), "a failed refresh must leave the prior record byte-for-byte intact")
	assert.Equal(t, 1, got.VisitCount)
}

func TestUpdater_EmptySummaryIsRefreshFailure(t *testing.T) {
	llm := &fakeSummarizer{respond: func(int, schemas.GenerationRequest) (string, error) {
		return "   \n", nil
	}}
	updater, store := newTestUpdater(t, llm, testDCConfig())

	_, err := updater.Refresh(context.Background(), "vogue.com", []string{"e1"})
	var refreshErr *RefreshFailedError
	require.ErrorAs(t, err, &refreshErr)

	_, found, err := store.Get("vogue.com")
	require.NoError(t, err)
	assert.False(t, found, "a blank summary must never blank existing or create new records")
}

func TestUpdater_NoEvidenceGuard(t *testing.T) {
	llm := &fakeSummarizer{}
	updater, _ := newTestUpdater(t, llm, testDCConfig())

	_, err := updater.Refresh(context.Background(), "vogue.com", nil)
	var invalid *InvalidTriggerError
	require.ErrorAs(t, err, &invalid)
	assert.Zero(t, llm.calls, "an empty-evidence refresh must never reach the summarizer")

	_, err = updater.Refresh(context.Background(), "vogue.com", []string{})
	require.ErrorAs(t, err, &invalid)
	assert.Zero(t, llm.calls)
}

func TestUpdater_ConcurrentRefreshesBothPersist(t *testing.T) {
	llm := &fakeSummarizer{respond: func(_ int, req schemas.GenerationRequest) (string, error) {
		// Derive the summary from the prompt so each domain gets a stable,
		// call-order-independent result.
		if strings.Contains(req.UserPrompt, "Domain: a.com") {
			return "about a.com", nil
		}
		return "about b.com", nil
	}}
	updater, store := newTestUpdater(t, llm, testDCConfig())

	var g errgroup.Group
	g.Go(func() error {
		_, err := updater.Refresh(context.Background(), "a.com", []string{"ea"})
		return err
	})
	g.Go(func() error {
		_, err := updater.Refresh(context.Background(), "b.com", []string{"eb"})
		return err
	})
	require.NoError(t, g.Wait())

	records, err := store.Load()
	require.NoError(t, err)
	require.Len(t, records, 2, "neither concurrent refresh may lose the other's write")
	assert.Equal(t, "about a.com", records["a.com"].Summary)
	assert.Equal(t, "about b.com", records["b.com"].Summary)
}
