package export

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownExporter exports matches to Markdown format.
type MarkdownExporter struct{}

// Export writes the match as Markdown.
func (e *MarkdownExporter) Export(doc *Document, w io.Writer) error {
	m := doc.Match
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", m.Topic))

	sb.WriteString("## Match Information\n\n")
	sb.WriteString(fmt.Sprintf("- **ID:** `%s`\n", m.ID))
	sb.WriteString(fmt.Sprintf("- **Pros:** %s\n", agentLine(doc.AgentA, m.AgentAID)))
	sb.WriteString(fmt.Sprintf("- **Cons:** %s\n", agentLine(doc.AgentB, m.AgentBID)))
	sb.WriteString(fmt.Sprintf("- **Played:** %s\n", m.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("\n")

	sb.WriteString("## Debate\n\n")
	if len(m.Transcript) == 0 {
		sb.WriteString("*No entries recorded.*\n\n")
	}
	nameA, nameB := agentName(doc.AgentA, m.AgentAID), agentName(doc.AgentB, m.AgentBID)
	for i, entry := range m.Transcript {
		if i%2 == 0 {
			sb.WriteString(fmt.Sprintf("### %s\n\n", stageTitle(entry.Stage)))
		}
		name := nameA
		if entry.AgentID == m.AgentBID {
			name = nameB
		}
		sb.WriteString(fmt.Sprintf("**%s:**\n\n%s\n\n", name, entry.Text))
	}

	sb.WriteString("## Verdict\n\n")
	sb.WriteString("| Judge | Pros | Cons | Method |\n|---|---|---|---|\n")
	for _, v := range m.JudgeVerdicts {
		sb.WriteString(fmt.Sprintf("| %s | %.3f | %.3f | %s |\n", v.JudgeID, v.ScoreA, v.ScoreB, v.Method))
	}
	sb.WriteString(fmt.Sprintf("\n**Final score:** %.3f - %.3f\n\n", m.ScoreA, m.ScoreB))
	sb.WriteString(fmt.Sprintf("**Winner:** %s\n\n", winnerLine(doc)))

	if m.ConclusionText != "" {
		sb.WriteString("## Conclusion\n\n")
		sb.WriteString(m.ConclusionText)
		sb.WriteString("\n\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString("*Exported from debatearena*\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}

// ContentType returns the MIME type for Markdown.
func (e *MarkdownExporter) ContentType() string {
	return "text/markdown; charset=utf-8"
}
