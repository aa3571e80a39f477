package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alienxp03/debatearena/internal/config"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show owner ratings, highest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		ratings, err := a.engine.Leaderboard(ctx, 20)
		if err != nil {
			return err
		}
		if len(ratings) == 0 {
			fmt.Println("No rated owners yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tOWNER\tRATING\tUPDATED")
		for i, r := range ratings {
			fmt.Fprintf(w, "%d\t%s\t%.0f\t%s\n", i+1, r.OwnerID, r.Rating, r.UpdatedAt.Format("Jan 2 15:04"))
		}
		return w.Flush()
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := appConfig.CreateRegistry()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCOMMAND\tMODELS\tSTATUS")
		for _, name := range registry.Names() {
			p, _ := registry.Get(name)
			pc, _ := appConfig.GetProvider(name)
			status := "not found"
			if p.Available() {
				status = "available"
			}
			if name == appConfig.Defaults.Provider {
				status += " (default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", name, pc.Command, pc.Models, status)
		}
		return w.Flush()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		fmt.Printf("Config file: %s\n\n", path)

		fmt.Println("Current settings:")
		fmt.Printf("  Default provider: %s\n", appConfig.Defaults.Provider)
		fmt.Printf("  Elo K-factor: %.0f\n", appConfig.Debate.KFactor)
		fmt.Printf("  Conclusion: %v\n", appConfig.Debate.Conclusion)
		fmt.Printf("  Writing budget: %d min, draft floor: %d words\n", appConfig.Arena.WritingMinutes, appConfig.Arena.MinDraftWords)
		fmt.Println("\nJudges:")
		for _, j := range appConfig.Judges {
			prov := j.Provider
			if prov == "" {
				prov = appConfig.Defaults.Provider
			}
			fmt.Printf("  %s: %s via %s\n", j.ID, j.Persona, prov)
		}
		fmt.Println("\nProviders:")
		for name, p := range appConfig.Providers {
			status := "disabled"
			if p.Enabled {
				status = "enabled"
			}
			fmt.Printf("  %s: %s (timeout: %s, retries: %d)\n", name, status, p.Timeout, p.MaxRetries)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(config.GenerateExample()), 0644); err != nil {
			return err
		}

		fmt.Printf("Created config at: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
