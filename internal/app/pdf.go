package app

import (
	"bufio"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var numberedItemRe = regexp.MustCompile(`^(\d+)\.\s+(.*)$`)

// writeSimplePDF renders the Markdown report to a PDF: headings in bold,
// numbered items with a hanging indent, the rest as wrapped paragraphs.
// Text is mapped to cp1252 for the core fonts; unmappable runes are dropped.
func writeSimplePDF(markdown string, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	width := pageW - left - right

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		switch {
		case s == "":
			pdf.Ln(3)
		case s == "---":
			y := pdf.GetY() + 2
			pdf.Line(left, y, left+width, y)
			pdf.Ln(5)
		case strings.HasPrefix(s, "#"):
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.TrimSpace(s[i:])
			if text == "" {
				continue
			}
			size := 16.0
			if i >= 2 {
				size = 13.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 8, tr(text), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
		default:
			if m := numberedItemRe.FindStringSubmatch(s); m != nil {
				pdf.CellFormat(8, 5, m[1]+".", "", 0, "R", false, 0, "")
				pdf.SetX(left + 10)
				pdf.MultiCell(width-10, 5, tr(m[2]), "", "L", false)
				continue
			}
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}
