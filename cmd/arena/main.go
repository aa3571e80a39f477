package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alienxp03/debatearena/internal/arena"
	"github.com/alienxp03/debatearena/internal/config"
	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
	"github.com/alienxp03/debatearena/internal/guard"
	"github.com/alienxp03/debatearena/internal/storage"
	"github.com/alienxp03/debatearena/provider"
)

var (
	dbPath    string
	cfgPath   string
	debug     bool
	appConfig *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "AI debate arena",
	Long: `arena pits knowledge-backed AI agents against each other in seven-stage
debates scored by a panel of judges.

Run a quick match between two agents from the terminal, or start the server
and let two people meet in an arena, each bringing or writing their agent.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(cmd.Name() == "serve")

		var err error
		if cfgPath != "" {
			appConfig, err = config.LoadFrom(cfgPath)
		} else {
			appConfig, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.debatearena/debatearena.db)")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path (default: ~/.debatearena/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(arenaCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(configCmd)
}

// setupLogging installs the default logger. The server logs JSON to stdout;
// CLI commands only surface warnings on stderr.
func setupLogging(server bool) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if !server {
		opts.Level = slog.LevelWarn
	}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if server {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, opts)))
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
}

// app bundles the wired services.
type app struct {
	store    storage.Storage
	registry *provider.Registry
	resolver *engine.RegistryResolver
	engine   *engine.Engine
	arenas   *arena.Service
}

func newApp(ctx context.Context) (*app, error) {
	path := dbPath
	if path == "" {
		path = appConfig.DatabasePath(storage.DefaultDBPath())
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	if err := store.Initialize(ctx); err != nil {
		store.Close()
		return nil, err
	}

	registry := appConfig.CreateRegistry()
	resolver := &engine.RegistryResolver{
		Registry:        registry,
		DefaultProvider: appConfig.Defaults.Provider,
		DefaultModel:    appConfig.Defaults.Model,
	}

	panel, err := engine.BuildPanel(resolver, appConfig.JudgeProfiles(), appConfig.CustomPersonas())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to build judge panel: %w", err)
	}

	opts := engine.Options{KFactor: appConfig.Debate.KFactor}
	if appConfig.Debate.Conclusion {
		gen, err := resolver.Generator("", "")
		if err != nil {
			slog.Warn("Conclusions disabled, default provider unavailable", "error", err)
		} else {
			opts.Conclusion = gen
		}
	}
	eng := engine.New(store, resolver, panel, opts)

	arenas := arena.NewService(store, eng, guard.New(), arena.Options{
		DefaultWritingMinutes: appConfig.Arena.WritingMinutes,
		MinDraftWords:         appConfig.Arena.MinDraftWords,
	})

	return &app{
		store:    store,
		registry: registry,
		resolver: resolver,
		engine:   eng,
		arenas:   arenas,
	}, nil
}

func (a *app) Close() error {
	a.arenas.Wait()
	return a.store.Close()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

// findMatchByPrefix resolves a full or abbreviated match id.
func findMatchByPrefix(ctx context.Context, a *app, prefix string) (string, error) {
	matches, err := a.engine.ListMatches(ctx, 500, 0)
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if strings.HasPrefix(m.ID, prefix) {
			return m.ID, nil
		}
	}
	return "", core.NewNotFoundError("match", prefix)
}

// findAgentByPrefix resolves a full or abbreviated agent id.
func findAgentByPrefix(ctx context.Context, a *app, prefix string) (string, error) {
	if agent, err := a.engine.GetAgent(ctx, prefix); err == nil {
		return agent.ID, nil
	}
	agents, err := a.engine.ListAgents(ctx, "")
	if err != nil {
		return "", err
	}
	for _, ag := range agents {
		if strings.HasPrefix(ag.ID, prefix) {
			return ag.ID, nil
		}
	}
	return "", core.NewNotFoundError("agent", prefix)
}
