// File: internal/history/history.go
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/api/schemas"
)

// Writer persists finished run histories as one JSON document per run.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter creates a writer rooted at dir. The directory is created on the
// first save.
func NewWriter(dir string, logger *zap.Logger) *Writer {
	return &Writer{
		dir:    dir,
		logger: logger.Named("history"),
	}
}

// Save writes the run history to <dir>/<run_id>.json and returns the path.
func (w *Writer) Save(run *schemas.RunHistory) (string, error) {
	if run.RunID == "" {
		return "", fmt.Errorf("run history has no run ID")
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create history directory %q: %w", w.dir, err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run history: %w", err)
	}

	path := filepath.Join(w.dir, run.RunID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write run history: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to commit run history: %w", err)
	}

	w.logger.Info("Run history saved.",
		zap.String("run_id", run.RunID),
		zap.String("path", path),
		zap.Int("steps", len(run.Steps)))
	return path, nil
}

// Load reads a previously saved run history.
func Load(path string) (*schemas.RunHistory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run history %q: %w", path, err)
	}
	var run schemas.RunHistory
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run history %q: %w", path, err)
	}
	return &run, nil
}

// StepSummary renders one step as a single evidence line for the domain
// context tracker: what the agent did, where, and how it went.
func StepSummary(step schemas.StepRecord) string {
	outcome := "ok"
	for _, res := range step.Results {
		if res.Error != "" {
			outcome = "error: " + res.Error
			break
		}
	}

	action := "observed"
	if len(step.Actions) > 0 {
		action = string(step.Actions[0].Type)
		if step.Actions[0].Value != "" && len(step.Actions[0].Value) <= 60 {
			action += " " + step.Actions[0].Value
		}
	}

	title := step.State.Title
	if title == "" {
		title = step.State.URL
	}
	ts := step.Timestamp.Format(time.TimeOnly)
	return fmt.Sprintf("[%s] step %d on %q: %s (%s)", ts, step.Step, title, action, outcome)
}
