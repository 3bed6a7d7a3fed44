// File: internal/agent/runner.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/api/schemas"
	"github.com/avelasco-eng/ariadne/internal/config"
	"github.com/avelasco-eng/ariadne/internal/extract"
	"github.com/avelasco-eng/ariadne/internal/history"
	"github.com/avelasco-eng/ariadne/internal/tasks"
)

// Runner executes a task list with one controller, persisting each run's
// history and collecting the extracted market entities across all runs.
type Runner struct {
	controller *Controller
	writer     *history.Writer
	parser     *extract.Parser
	cfg        config.OutputConfig
	logger     *zap.Logger
}

func NewRunner(controller *Controller, writer *history.Writer, parser *extract.Parser, cfg config.OutputConfig, logger *zap.Logger) *Runner {
	return &Runner{
		controller: controller,
		writer:     writer,
		parser:     parser,
		cfg:        cfg,
		logger:     logger.Named("runner"),
	}
}

// RunAll runs every task in order. A failing task does not stop the batch;
// all failures are joined into the returned error. Entities extracted by the
// successful runs are returned either way.
func (r *Runner) RunAll(ctx context.Context, taskList []tasks.Task) ([]schemas.MarketEntity, error) {
	var entities []schemas.MarketEntity
	var errs []error

	for _, task := range taskList {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		run, err := r.controller.Run(ctx, task)
		if err != nil {
			r.logger.Error("Task run failed.", zap.String("task", task.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("task %q: %w", task.Name, err))
		}

		if run != nil && r.cfg.SaveHistory {
			if _, saveErr := r.writer.Save(run); saveErr != nil {
				r.logger.Error("Failed to persist run history.",
					zap.String("task", task.Name), zap.Error(saveErr))
				errs = append(errs, saveErr)
			}
		}

		entities = append(entities, r.parser.FromHistory(run)...)
	}

	if len(entities) > 0 {
		if path, err := r.saveEntities(entities); err != nil {
			errs = append(errs, err)
		} else {
			r.logger.Info("Extracted entities saved.",
				zap.String("path", path), zap.Int("entities", len(entities)))
		}
	}
	return entities, errors.Join(errs...)
}

func (r *Runner) saveEntities(entities []schemas.MarketEntity) (string, error) {
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %q: %w", r.cfg.Dir, err)
	}
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal entities: %w", err)
	}
	path := filepath.Join(r.cfg.Dir, fmt.Sprintf("entities_%s.json", time.Now().UTC().Format("20060102T150405Z")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write entities file: %w", err)
	}
	return path, nil
}
