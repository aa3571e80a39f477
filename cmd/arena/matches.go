package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/engine"
	"github.com/alienxp03/debatearena/internal/export"
	"github.com/alienxp03/debatearena/internal/stream"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run and inspect matches",
}

var (
	matchProsFlag string
	matchConsFlag string
)

// consoleObserver prints a live match as it is generated.
type consoleObserver struct {
	names map[string]string
}

func (o *consoleObserver) StageStarted(s core.Stage) {
	fmt.Printf("\n== %s ==\n", s)
}

func (o *consoleObserver) EntryGenerated(e core.RoundEntry) {
	fmt.Printf("\n[%s]\n%s\n", o.names[e.AgentID], e.Text)
}

var matchRunCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Run a debate between two agents",
	Long: `Run a seven-stage debate. The --pros agent argues for the topic and the
--cons agent against it. Agent ids may be abbreviated.

Example:
  arena match run "Cities should ban private cars" --pros 3f2a --cons 9b1c`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		prosID, err := findAgentByPrefix(ctx, a, matchProsFlag)
		if err != nil {
			return err
		}
		consID, err := findAgentByPrefix(ctx, a, matchConsFlag)
		if err != nil {
			return err
		}
		pros, _ := a.engine.GetAgent(ctx, prosID)
		cons, _ := a.engine.GetAgent(ctx, consID)

		topic := strings.Join(args, " ")
		fmt.Printf("Topic: %s\n", topic)
		fmt.Printf("Pros:  %s\nCons:  %s\n", pros.Name, cons.Name)

		obs := &consoleObserver{names: map[string]string{
			prosID: pros.Name + " (pros)",
			consID: cons.Name + " (cons)",
		}}
		m, err := a.engine.RunMatch(ctx, engine.MatchRequest{Topic: topic, AgentAID: prosID, AgentBID: consID}, obs)
		if err != nil {
			return err
		}

		printVerdict(m, pros.Name, cons.Name)
		fmt.Printf("\nMatch ID: %s\n", m.ID)
		return nil
	},
}

func printVerdict(m *core.Match, nameA, nameB string) {
	fmt.Println("\n== verdict ==")
	for _, v := range m.JudgeVerdicts {
		fmt.Printf("  %-20s %.3f - %.3f  (%s)\n", v.JudgeID, v.ScoreA, v.ScoreB, v.Method)
	}
	fmt.Printf("\nFinal: %s %.3f - %.3f %s\n", nameA, m.ScoreA, m.ScoreB, nameB)
	switch m.WinnerAgentID {
	case "":
		fmt.Println("Result: tie")
	case m.AgentAID:
		fmt.Printf("Winner: %s\n", nameA)
	default:
		fmt.Printf("Winner: %s\n", nameB)
	}
	if m.ConclusionText != "" {
		fmt.Printf("\n%s\n", m.ConclusionText)
	}
}

var matchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		matches, err := a.engine.ListMatches(ctx, 20, 0)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No matches yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTOPIC\tSCORE\tWINNER\tPLAYED")
		for _, m := range matches {
			winner := "tie"
			switch m.WinnerAgentID {
			case m.AgentAID:
				winner = "pros"
			case m.AgentBID:
				winner = "cons"
			}
			fmt.Fprintf(w, "%s\t%s\t%.2f-%.2f\t%s\t%s\n",
				core.ShortID(m.ID), truncate(m.Topic, 40), m.ScoreA, m.ScoreB, winner,
				m.CreatedAt.Format("Jan 2 15:04"))
		}
		return w.Flush()
	},
}

var matchShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Replay a match in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		doc, err := loadDocument(ctx, a, args[0])
		if err != nil {
			return err
		}
		m := doc.Match
		nameA, nameB := agentLabel(doc.AgentA, m.AgentAID), agentLabel(doc.AgentB, m.AgentBID)
		fmt.Printf("Topic: %s\n", m.Topic)

		emitter := stream.NewEmitter(appConfig.Stream.ChunkSize, appConfig.Stream.ChunkDelay)
		speaker := ""
		sink := stream.SinkFunc(func(ev stream.Event) error {
			switch ev.Type {
			case stream.EventStageStart:
				fmt.Printf("\n\n== %s ==", ev.Stage)
				speaker = ""
			case stream.EventChunk:
				if ev.AgentID != speaker {
					speaker = ev.AgentID
					name := nameA
					if speaker == m.AgentBID {
						name = nameB
					}
					fmt.Printf("\n\n[%s]\n", name)
				}
				fmt.Print(ev.Text)
			}
			return nil
		})
		if err := emitter.Replay(ctx, sink, m); err != nil {
			return err
		}
		fmt.Println()
		printVerdict(m, nameA, nameB)
		return nil
	},
}

var exportFormat string
var exportOutput string

var matchExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a match as markdown, json or pdf",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		exporter, err := export.GetExporter(export.Format(exportFormat))
		if err != nil {
			return err
		}
		doc, err := loadDocument(ctx, a, args[0])
		if err != nil {
			return err
		}

		path := exportOutput
		if path == "" {
			path = export.GenerateFilename(doc.Match, exporter.FileExtension())
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer f.Close()

		if err := exporter.Export(doc, f); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		fmt.Printf("Exported to: %s\n", path)
		return nil
	},
}

func loadDocument(ctx context.Context, a *app, prefix string) (*export.Document, error) {
	id, err := findMatchByPrefix(ctx, a, prefix)
	if err != nil {
		return nil, err
	}
	m, err := a.engine.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := &export.Document{Match: m}
	doc.AgentA, _ = a.engine.GetAgent(ctx, m.AgentAID)
	doc.AgentB, _ = a.engine.GetAgent(ctx, m.AgentBID)
	return doc, nil
}

func agentLabel(ag *core.Agent, id string) string {
	if ag == nil {
		return core.ShortID(id)
	}
	return ag.Name
}

func init() {
	matchRunCmd.Flags().StringVar(&matchProsFlag, "pros", "", "Agent arguing for the topic")
	matchRunCmd.Flags().StringVar(&matchConsFlag, "cons", "", "Agent arguing against the topic")
	matchRunCmd.MarkFlagRequired("pros")
	matchRunCmd.MarkFlagRequired("cons")

	matchExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Export format (markdown, json, pdf)")
	matchExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: generated name)")

	matchCmd.AddCommand(matchRunCmd)
	matchCmd.AddCommand(matchListCmd)
	matchCmd.AddCommand(matchShowCmd)
	matchCmd.AddCommand(matchExportCmd)
}
