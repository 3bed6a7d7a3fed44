// File: internal/history/history_test.go
package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/avelasco-eng/ariadne/api/schemas"
)

func sampleRun(id string) *schemas.RunHistory {
	boolTrue := true
	return &schemas.RunHistory{
		RunID: id,
		Task:  "find the returns policy",
		Steps: []schemas.StepRecord{
			{
				Step:  1,
				State: schemas.PageState{URL: "https://example.com", Title: "Example"},
				Actions: []schemas.AgentAction{
					{Type: schemas.ActionNavigate, Value: "https://example.com/help"},
				},
				Results:   []schemas.ActionResult{{Success: &boolTrue}},
				Timestamp: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
			},
		},
		FinalResult: "Returns accepted within 30 days.",
		StartedAt:   time.Date(2026, 8, 31, 9, 59, 0, 0, time.UTC),
		FinishedAt:  time.Date(2026, 8, 31, 10, 1, 0, 0, time.UTC),
	}
}

func TestWriter_SaveAndLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(filepath.Join(dir, "runs"), zaptest.NewLogger(t))

	path, err := w.Save(sampleRun("run-abc"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "runs", "run-abc.json"), path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "find the returns policy", loaded.Task)
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, schemas.ActionNavigate, loaded.Steps[0].Actions[0].Type)
	assert.Equal(t, "Returns accepted within 30 days.", loaded.FinalResult)
}

func TestWriter_SaveRequiresRunID(t *testing.T) {
	w := NewWriter(t.TempDir(), zaptest.NewLogger(t))
	_, err := w.Save(&schemas.RunHistory{Task: "x"})
	assert.ErrorContains(t, err, "no run ID")
}

func TestWriter_SaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, zaptest.NewLogger(t))
	_, err := w.Save(sampleRun("run-tmp"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-tmp.json", entries[0].Name())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestStepSummary(t *testing.T) {
	step := sampleRun("r").Steps[0]
	line := StepSummary(step)
	assert.Contains(t, line, "step 1")
	assert.Contains(t, line, `"Example"`)
	assert.Contains(t, line, "navigate https://example.com/help")
	assert.Contains(t, line, "(ok)")

	step.Results = []schemas.ActionResult{{Error: "element not found"}}
	assert.Contains(t, StepSummary(step), "error: element not found")

	step.Actions = nil
	assert.Contains(t, StepSummary(step), "observed")
}
