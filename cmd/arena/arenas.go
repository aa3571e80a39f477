package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alienxp03/debatearena/internal/core"
)

var arenaCmd = &cobra.Command{
	Use:   "arena",
	Short: "Inspect arenas",
}

var arenaUserFlag string

var arenaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List arenas",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		arenas, err := a.arenas.List(ctx, arenaUserFlag, 50, 0)
		if err != nil {
			return err
		}
		if len(arenas) == 0 {
			fmt.Println("No arenas.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tID\tTOPIC\tTYPE\tSTATUS\tCREATOR\tJOINER")
		for _, ar := range arenas {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				ar.Code, core.ShortID(ar.ID), truncate(ar.Topic, 32), ar.GameType, ar.Status, ar.CreatorID, ar.JoinerID)
		}
		return w.Flush()
	},
}

var arenaShowCmd = &cobra.Command{
	Use:   "show [id|code]",
	Short: "Show an arena",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		ar, err := a.arenas.Get(ctx, args[0])
		if err != nil {
			ar, err = a.arenas.GetByCode(ctx, args[0])
			if err != nil {
				return err
			}
		}

		fmt.Printf("Arena %s (%s)\n", ar.Code, ar.ID)
		fmt.Printf("  Topic:   %s\n", ar.Topic)
		fmt.Printf("  Type:    %s\n", ar.GameType)
		fmt.Printf("  Status:  %s (v%d)\n", ar.Status, ar.Version)
		fmt.Printf("  Creator: %s side=%s ready=%v\n", ar.CreatorID, ar.CreatorSide, ar.CreatorReady)
		if ar.JoinerID != "" {
			fmt.Printf("  Joiner:  %s side=%s ready=%v\n", ar.JoinerID, ar.JoinerSide, ar.JoinerReady)
		}
		if ar.ProsAgentID != "" || ar.ConsAgentID != "" {
			fmt.Printf("  Pros agent: %s\n  Cons agent: %s\n", ar.ProsAgentID, ar.ConsAgentID)
		}
		if ar.GameType == core.GameChallenge {
			for _, role := range []core.Role{core.RoleCreator, core.RoleJoiner} {
				st := ar.Authoring(role)
				fmt.Printf("  %s authoring: %s, %d draft words, submitted=%v\n", role, st.Status, st.DraftWords(), st.Submitted)
			}
		}
		if ar.MatchID != "" {
			fmt.Printf("  Match: %s\n", ar.MatchID)
		}
		if ar.CancelReason != "" {
			fmt.Printf("  Cancelled: %s\n", ar.CancelReason)
		}
		if ar.LastError != "" {
			fmt.Printf("  Last error: %s\n", ar.LastError)
		}
		return nil
	},
}

func init() {
	arenaListCmd.Flags().StringVar(&arenaUserFlag, "user", "", "Only arenas this user takes part in")
	arenaCmd.AddCommand(arenaListCmd)
	arenaCmd.AddCommand(arenaShowCmd)
}
