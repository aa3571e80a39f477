// Package export renders finished matches as Markdown, JSON or PDF.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/alienxp03/debatearena/internal/core"
	"github.com/alienxp03/debatearena/internal/stage"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Document is a match together with the agents that argued it. Agents may be
// nil when they were deleted; their ids are shown instead.
type Document struct {
	Match  *core.Match `json:"match"`
	AgentA *core.Agent `json:"agent_a,omitempty"`
	AgentB *core.Agent `json:"agent_b,omitempty"`
}

// Exporter writes a document in one format.
type Exporter interface {
	Export(doc *Document, w io.Writer) error
	FileExtension() string
	ContentType() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown, "md":
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(m *core.Match, ext string) string {
	topic := []rune(m.Topic)
	if len(topic) > 50 {
		topic = topic[:50]
	}

	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	name := replacer.Replace(string(topic))

	return fmt.Sprintf("match_%s_%s_%s.%s", m.CreatedAt.Format("20060102"), core.ShortID(m.ID), name, ext)
}

func agentName(a *core.Agent, id string) string {
	if a == nil {
		return core.ShortID(id)
	}
	return a.Name
}

func agentLine(a *core.Agent, id string) string {
	if a == nil || a.Provider == "" {
		return agentName(a, id)
	}
	if a.Model != "" {
		return fmt.Sprintf("%s (%s/%s)", a.Name, a.Provider, a.Model)
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.Provider)
}

func winnerLine(doc *Document) string {
	switch doc.Match.WinnerAgentID {
	case "":
		return "Tie"
	case doc.Match.AgentAID:
		return agentName(doc.AgentA, doc.Match.AgentAID) + " (pros)"
	default:
		return agentName(doc.AgentB, doc.Match.AgentBID) + " (cons)"
	}
}

var stageTitles = func() map[core.Stage]string {
	titles := make(map[core.Stage]string)
	for _, p := range stage.DefaultProfiles() {
		titles[p.Stage] = p.Name
	}
	return titles
}()

func stageTitle(s core.Stage) string {
	if t, ok := stageTitles[s]; ok {
		return t
	}
	return s.String()
}
