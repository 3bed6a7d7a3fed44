// -- cmd/context.go --
package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/avelasco-eng/ariadne/internal/domaincontext"
	"github.com/avelasco-eng/ariadne/internal/observability"
)

// newContextCmd creates the `context` command group for inspecting the
// persisted domain knowledge store.
func newContextCmd() *cobra.Command {
	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Inspects the persisted per-domain context store",
	}
	contextCmd.AddCommand(newContextListCmd())
	contextCmd.AddCommand(newContextShowCmd())
	return contextCmd
}

func openStore() *domaincontext.Store {
	return domaincontext.NewStore(cfg.DomainContext.StorePath, 0, observability.GetLogger())
}

func newContextListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists every domain with stored context",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := openStore().Load()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				cmd.Println("No domain context stored yet.")
				return nil
			}

			domains := make([]string, 0, len(records))
			for domain := range records {
				domains = append(domains, domain)
			}
			sort.Strings(domains)

			for _, domain := range domains {
				rec := records[domain]
				cmd.Printf("%-40s visits: %-4d updated: %s\n",
					domain, rec.VisitCount, rec.LastUpdated.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newContextShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <domain-or-url>",
		Short: "Prints the stored context for one domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := domaincontext.NewTool(openStore(), observability.GetLogger())
			summary, err := tool.GetDomainContext(args[0])
			if err != nil {
				return fmt.Errorf("context lookup failed: %w", err)
			}
			cmd.Println(summary)
			return nil
		},
	}
}
