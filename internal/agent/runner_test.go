// File: internal/agent/runner_test.go
package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/avelasco-eng/ariadne/api/schemas"
	"github.com/avelasco-eng/ariadne/internal/config"
	"github.com/avelasco-eng/ariadne/internal/extract"
	"github.com/avelasco-eng/ariadne/internal/history"
	"github.com/avelasco-eng/ariadne/internal/tasks"
)

func TestRunner_RunAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	browser := newFakeBrowser()
	llm := &scriptedLLM{
		decisions: []string{
			decision(`{"type": "extract"}`),
			decision(`{"type": "done", "value": "collected"}`),
			decision(`{"type": "done", "value": "second task done"}`),
		},
		extractJSON: `{"events": [{"title": "Sample sale", "location": "Madrid"}]}`,
		verdictJSON: `{"verdict": "success"}`,
	}
	ctrl, _ := newTestController(t, browser, llm)

	logger := zaptest.NewLogger(t)
	outDir := t.TempDir()
	runner := NewRunner(
		ctrl,
		history.NewWriter(outDir, logger),
		extract.NewParser(logger),
		config.OutputConfig{Dir: outDir, SaveHistory: true},
		logger,
	)

	entities, err := runner.RunAll(context.Background(), []tasks.Task{
		{Name: "events", Description: "find events", StartURL: "https://a.example.com"},
		{Name: "noop", Description: "do nothing", StartURL: "https://b.example.com"},
	})
	require.NoError(t, err)

	require.Len(t, entities, 1)
	assert.Equal(t, schemas.SignalFashionEvents, entities[0].SignalType)
	assert.Equal(t, "Sample sale", entities[0].Title)

	// Two run histories plus one entities file were written.
	dirEntries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var runFiles, entityFiles int
	for _, e := range dirEntries {
		if strings.HasPrefix(e.Name(), "entities_") {
			entityFiles++
		} else {
			runFiles++
		}
	}
	assert.Equal(t, 2, runFiles)
	assert.Equal(t, 1, entityFiles)
}

func TestRunner_FailingTaskDoesNotStopBatch(t *testing.T) {
	browser := newFakeBrowser()
	llm := &scriptedLLM{
		// First task exhausts its scripted decisions immediately by having
		// none scripted for it; the second task completes.
		decisions: []string{
			decision(`{"type": "done", "value": "ok"}`),
		},
		verdictJSON: `{"verdict": "success"}`,
	}
	ctrl, _ := newTestController(t, browser, llm)

	logger := zaptest.NewLogger(t)
	outDir := t.TempDir()
	runner := NewRunner(
		ctrl,
		history.NewWriter(outDir, logger),
		extract.NewParser(logger),
		config.OutputConfig{Dir: outDir, SaveHistory: false},
		logger,
	)

	// The broken start URL makes the first task's navigation fail hard.
	browser.failNext["navigate https://broken.example.com"] = os.ErrDeadlineExceeded

	entities, err := runner.RunAll(context.Background(), []tasks.Task{
		{Name: "broken", Description: "fails", StartURL: "https://broken.example.com"},
		{Name: "ok", Description: "works", StartURL: "https://fine.example.com"},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, `task "broken"`)
	assert.Empty(t, entities)

	// SaveHistory is off, so nothing landed in the output directory.
	dirEntries, readErr := os.ReadDir(outDir)
	require.NoError(t, readErr)
	assert.Empty(t, dirEntries)
}

func TestRunner_ContextCancellationStopsBatch(t *testing.T) {
	browser := newFakeBrowser()
	llm := &scriptedLLM{verdictJSON: `{"verdict": "failure"}`}
	ctrl, _ := newTestController(t, browser, llm)

	logger := zaptest.NewLogger(t)
	runner := NewRunner(
		ctrl,
		history.NewWriter(t.TempDir(), logger),
		extract.NewParser(logger),
		config.OutputConfig{Dir: filepath.Join(t.TempDir(), "out")},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.RunAll(ctx, []tasks.Task{{Name: "t", Description: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
}
