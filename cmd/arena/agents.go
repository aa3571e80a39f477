package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alienxp03/debatearena/internal/core"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage debate agents",
}

var (
	agentOwnerFlag     string
	agentProviderFlag  string
	agentModelFlag     string
	agentPackFlags     []string
	agentKnowledgeFlag []string
)

var agentCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an agent from knowledge text or files",
	Long: `Create an agent. Knowledge is given with --knowledge, once per fragment;
a value starting with @ is read from that file.

Examples:
  arena agent create Urbanist --knowledge "Cars take 70% of street space."
  arena agent create Skeptic --knowledge @notes/traffic.md --provider claude --model haiku`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		knowledge := make([]string, 0, len(agentKnowledgeFlag))
		for _, k := range agentKnowledgeFlag {
			if path, ok := strings.CutPrefix(k, "@"); ok {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read knowledge file: %w", err)
				}
				k = string(data)
			}
			knowledge = append(knowledge, k)
		}

		agent, err := a.engine.CreateAgent(ctx, core.NewAgentConfig{
			OwnerID:   agentOwnerFlag,
			Name:      args[0],
			Provider:  agentProviderFlag,
			Model:     agentModelFlag,
			PackIDs:   agentPackFlags,
			Knowledge: knowledge,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created agent %s (%s)\n", agent.Name, agent.ID)
		fmt.Printf("  Packs: %d\n", len(agent.PackIDs))
		return nil
	},
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		agents, err := a.engine.ListAgents(ctx, agentOwnerFlag)
		if err != nil {
			return err
		}
		if len(agents) == 0 {
			fmt.Println("No agents yet. Create one with: arena agent create <name> --knowledge ...")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tOWNER\tPROVIDER\tPACKS\tCREATED")
		for _, ag := range agents {
			prov := ag.Provider
			if prov == "" {
				prov = "(default)"
			}
			if ag.Model != "" {
				prov += "/" + ag.Model
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				core.ShortID(ag.ID), truncate(ag.Name, 24), ag.OwnerID, prov, len(ag.PackIDs),
				ag.CreatedAt.Format("Jan 2 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	agentCreateCmd.Flags().StringVar(&agentOwnerFlag, "owner", "", "Owner id (rated on the leaderboard)")
	agentCreateCmd.Flags().StringVar(&agentProviderFlag, "provider", "", "Provider (default from config)")
	agentCreateCmd.Flags().StringVar(&agentModelFlag, "model", "", "Model")
	agentCreateCmd.Flags().StringSliceVar(&agentPackFlags, "pack", nil, "Existing pack id to attach (repeatable)")
	agentCreateCmd.Flags().StringArrayVarP(&agentKnowledgeFlag, "knowledge", "k", nil, "Knowledge fragment or @file (repeatable)")
	agentListCmd.Flags().StringVar(&agentOwnerFlag, "owner", "", "Only agents of this owner")

	agentCmd.AddCommand(agentCreateCmd)
	agentCmd.AddCommand(agentListCmd)
}
