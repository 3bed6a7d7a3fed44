// File: internal/tasks/tasks.go
package tasks

import (
	"fmt"
	"os"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/api/schemas"
)

// Task is one navigation assignment for the agent.
type Task struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	SignalType  schemas.SignalType `json:"signal_type,omitempty"`
	StartURL    string             `json:"start_url,omitempty"`
}

type taskFile struct {
	Tasks []Task `json:"tasks"`
}

// Load reads a task list from a JSON document of the form {"tasks": [...]}.
func Load(path string, logger *zap.Logger) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file %q: %w", path, err)
	}

	var doc taskFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse task file %q: %w", path, err)
	}
	if len(doc.Tasks) == 0 {
		return nil, fmt.Errorf("task file %q contains no tasks", path)
	}

	for i, task := range doc.Tasks {
		if task.Name == "" {
			return nil, fmt.Errorf("task %d in %q has no name", i, path)
		}
		if task.Description == "" {
			return nil, fmt.Errorf("task %q has no description", task.Name)
		}
	}

	logger.Info("Task list loaded.", zap.String("path", path), zap.Int("tasks", len(doc.Tasks)))
	return doc.Tasks, nil
}

// Default returns the built-in task list used when no task file is supplied.
func Default() []Task {
	return []Task{
		{
			Name:        "media_trends",
			Description: "Visit a major fashion publication, find its most recent trend coverage, and extract the trends it reports.",
			SignalType:  schemas.SignalMediaTrends,
			StartURL:    "https://www.vogue.com",
		},
		{
			Name:        "fashion_events",
			Description: "Find upcoming fashion events for the next quarter and extract their names, dates, and locations.",
			SignalType:  schemas.SignalFashionEvents,
		},
		{
			Name:        "search_demand",
			Description: "Look up rising apparel search queries and extract the queries with their implied products.",
			SignalType:  schemas.SignalSearchDemand,
			StartURL:    "https://trends.google.com",
		},
	}
}
