package report

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"product-transparency/backend/internal/scoring"
)

const writeChunk = 32 << 10

// Filename is the attachment name used for a product's PDF report.
func Filename(productID string) string {
	return fmt.Sprintf("product-%s-report.pdf", productID)
}

// RenderPDF lays out rep as a single-page PDF and writes it to w. It stops
// with ctx.Err() once ctx is done, including between written chunks.
func RenderPDF(ctx context.Context, w io.Writer, rep Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Product Transparency Report", true)
	pdf.SetCreator("product-transparency", true)
	pdf.SetCreationDate(rep.GeneratedAt)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 12, tr("Product Transparency Report"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 16)
	pdf.CellFormat(0, 8, tr("Product ID: "+rep.ProductID), "", 1, "L", false, 0, "")
	if rep.ProductName != "" {
		pdf.CellFormat(0, 8, tr("Product: "+rep.ProductName), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Helvetica", "", 12)
	if rep.Category != "" {
		pdf.CellFormat(0, 6, tr("Category: "+rep.Category), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Generated: "+rep.GeneratedAt.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, fmt.Sprintf("Transparency Score: %d/%d", rep.Score, scoring.MaxScore), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Score Breakdown:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range rep.Breakdown.Lines() {
		text := fmt.Sprintf("• %s: %d/%d", line.Label, line.Points, scoring.ComponentMax)
		pdf.CellFormat(0, 6, tr(text), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Recommendations:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	if len(rep.Recommendations) == 0 {
		pdf.MultiCell(0, 6, "None", "", "L", false)
	}
	for _, rec := range rep.Recommendations {
		pdf.MultiCell(0, 6, tr("• "+rec), "", "L", false)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	data := buf.Bytes()
	for len(data) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(writeChunk, len(data))
		if _, err := w.Write(data[:n]); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		data = data[n:]
	}
	return nil
}
