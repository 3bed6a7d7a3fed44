// -- cmd/run.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/internal/agent"
	"github.com/avelasco-eng/ariadne/internal/browser"
	"github.com/avelasco-eng/ariadne/internal/domaincontext"
	"github.com/avelasco-eng/ariadne/internal/extract"
	"github.com/avelasco-eng/ariadne/internal/history"
	"github.com/avelasco-eng/ariadne/internal/llmclient"
	"github.com/avelasco-eng/ariadne/internal/observability"
	"github.com/avelasco-eng/ariadne/internal/tasks"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var (
		tasksFile string
		adHocTask string
		startURL  string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Runs the navigation task list and extracts market entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			taskList, err := resolveTasks(tasksFile, adHocTask, startURL, logger)
			if err != nil {
				return err
			}

			router, err := llmclient.NewRouterFromConfig(cfg.LLM, logger)
			if err != nil {
				return fmt.Errorf("failed to build LLM router: %w", err)
			}
			defer router.Close()

			session, err := browser.NewSession(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to launch browser: %w", err)
			}
			defer session.Close()

			store := domaincontext.NewStore(cfg.DomainContext.StorePath, cfg.DomainContext.CacheTTL, logger)
			updater := domaincontext.NewUpdater(store, router, cfg.DomainContext, logger)
			tracker := domaincontext.NewTracker(updater, cfg.DomainContext, logger)
			tool := domaincontext.NewTool(store, logger)

			controller := agent.NewController(session, router, tracker, tool, cfg.Agent, logger)
			runner := agent.NewRunner(
				controller,
				history.NewWriter(cfg.Output.Dir, logger),
				extract.NewParser(logger),
				cfg.Output,
				logger,
			)

			entities, err := runner.RunAll(ctx, taskList)
			if err != nil {
				return err
			}
			logger.Info("All tasks finished.",
				zap.Int("tasks", len(taskList)),
				zap.Int("entities", len(entities)))
			return nil
		},
	}

	runCmd.Flags().StringVar(&tasksFile, "tasks", "", "path to a JSON task file")
	runCmd.Flags().StringVarP(&adHocTask, "task", "t", "", "run a single ad-hoc task instead of a task file")
	runCmd.Flags().StringVar(&startURL, "start-url", "", "start URL for the ad-hoc task")
	runCmd.MarkFlagsMutuallyExclusive("tasks", "task")
	return runCmd
}

func resolveTasks(tasksFile, adHocTask, startURL string, logger *zap.Logger) ([]tasks.Task, error) {
	switch {
	case adHocTask != "":
		return []tasks.Task{{Name: "adhoc", Description: adHocTask, StartURL: startURL}}, nil
	case tasksFile != "":
		return tasks.Load(tasksFile, logger)
	default:
		logger.Info("No task file given; using the built-in task list.")
		return tasks.Default(), nil
	}
}
