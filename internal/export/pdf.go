package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/alienxp03/debatearena/internal/core"
)

// PDFExporter exports matches to PDF format.
type PDFExporter struct{}

// Export writes the match as PDF.
func (e *PDFExporter) Export(doc *Document, w io.Writer) error {
	m := doc.Match
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, sanitizeText(m.Topic), "", "C", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Match Information")
	pdf.Ln(8)
	addMetadataRow(pdf, "ID:", core.ShortID(m.ID))
	addMetadataRow(pdf, "Pros:", sanitizeText(agentLine(doc.AgentA, m.AgentAID)))
	addMetadataRow(pdf, "Cons:", sanitizeText(agentLine(doc.AgentB, m.AgentBID)))
	addMetadataRow(pdf, "Played:", m.CreatedAt.Format("January 2, 2006 at 3:04 PM"))
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate")
	pdf.Ln(8)

	nameA, nameB := agentName(doc.AgentA, m.AgentAID), agentName(doc.AgentB, m.AgentBID)
	for _, entry := range m.Transcript {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		name := nameA
		if entry.AgentID == m.AgentAID {
			pdf.SetFillColor(200, 230, 255)
		} else {
			name = nameB
			pdf.SetFillColor(255, 220, 200)
		}

		pdf.SetFont("Arial", "B", 10)
		header := fmt.Sprintf("%s - %s", stageTitle(entry.Stage), sanitizeText(name))
		pdf.CellFormat(0, 7, header, "", 1, "", true, 0, "")

		pdf.SetFont("Arial", "", 9)
		pdf.SetFillColor(255, 255, 255)
		pdf.MultiCell(0, 5, sanitizeText(entry.Text), "", "", false)
		pdf.Ln(4)
	}

	if pdf.GetY() > 220 {
		pdf.AddPage()
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Verdict")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	for _, v := range m.JudgeVerdicts {
		pdf.Cell(0, 5, fmt.Sprintf("%s: %.3f - %.3f (%s)", v.JudgeID, v.ScoreA, v.ScoreB, v.Method))
		pdf.Ln(5)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 255, 200)
	pdf.CellFormat(0, 7, fmt.Sprintf("Final %.3f - %.3f, winner: %s", m.ScoreA, m.ScoreB, sanitizeText(winnerLine(doc))), "", 1, "", true, 0, "")

	if m.ConclusionText != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Conclusion")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, sanitizeText(m.ConclusionText), "", "", false)
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 10, "Exported from debatearena", "", 0, "C", false, 0, "")

	return pdf.Output(w)
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

// ContentType returns the MIME type for PDF.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

func addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(30, 5, label)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, value)
	pdf.Ln(5)
}

// sanitizeText maps common typographic characters to ones the core fonts
// (Windows-1252) can render.
func sanitizeText(text string) string {
	replacer := strings.NewReplacer(
		"\u2018", "'",
		"\u2019", "'",
		"\u201C", "\"",
		"\u201D", "\"",
		"\u2013", "-",
		"\u2014", "--",
		"\u2026", "...",
		"\u2022", "*",
		"\u00A0", " ",
	)
	return replacer.Replace(text)
}
