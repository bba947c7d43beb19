package controller

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"intern_certify_v1/model"

	"github.com/gofiber/fiber/v2"
	"github.com/jung-kurt/gofpdf"
)

const (
	internsPerPage = 20
	maxColumnWidth = 70.0
)

var rosterHeaders = []string{"No.", "Intern ID", "Full Name", "Email", "Position", "Joining Date", "Duration", "Completion", "Status", "Coordinator"}

// ExportDataToPDF writes the filtered intern roster as a landscape PDF table.
func (h *AdminInternHandler) ExportDataToPDF(c *fiber.Ctx) error {
	filter, ok, err := h.filter(c)
	if !ok {
		return err
	}
	interns, err := h.interns.ListWithCoordinator(c.UserContext(), filter)
	if err != nil {
		return storeError(c, err, "")
	}

	buf, err := rosterPDF(interns)
	if err != nil {
		log.Printf("[EXPORT] roster: %v", err)
		return respond(c, fiber.StatusInternalServerError, "Failed to generate PDF", nil)
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=intern_list_%s.pdf", time.Now().Format("20060102")))
	return c.Send(buf.Bytes())
}

func rosterRows(interns []model.Intern) [][]string {
	rows := make([][]string, 0, len(interns))
	for i, intern := range interns {
		coordinator := "N/A"
		if intern.Coordinator != nil {
			coordinator = intern.Coordinator.Name
		}
		completion := intern.ExpectedCompletionDate().Format("2006-01-02")
		if intern.CompletionDate != nil {
			completion = intern.CompletionDate.UTC().Format("2006-01-02")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			intern.Code,
			intern.Name,
			intern.Email,
			intern.Position,
			intern.JoiningDate.UTC().Format("2006-01-02"),
			model.FormatDuration(intern.InternshipDuration),
			completion,
			intern.Status,
			coordinator,
		})
	}
	return rows
}

func rosterPDF(interns []model.Intern) (*bytes.Buffer, error) {
	pdf := gofpdf.New("L", "mm", "Legal", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 11)

	dataRows := rosterRows(interns)
	for _, row := range dataRows {
		for i := range row {
			row[i] = tr(row[i])
		}
	}

	// Column widths
	colWidths := make([]float64, len(rosterHeaders))
	for i, header := range rosterHeaders {
		colWidths[i] = pdf.GetStringWidth(header) + 6
	}
	for _, row := range dataRows {
		for i, cell := range row {
			if w := pdf.GetStringWidth(cell) + 6; w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}
	totalTableWidth := 0.0
	for i := range colWidths {
		if colWidths[i] > maxColumnWidth {
			colWidths[i] = maxColumnWidth
		}
		totalTableWidth += colWidths[i]
	}

	totalPages := (len(dataRows)-1)/internsPerPage + 1
	rowIndex := 0
	for page := 0; page < totalPages; page++ {
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, "List of Interns", "", 1, "C", false, 0, "")
		pdf.Ln(3)

		pageWidth, _ := pdf.GetPageSize()
		startX := (pageWidth - totalTableWidth) / 2

		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(200, 200, 200)
		pdf.SetX(startX)
		for i, h := range rosterHeaders {
			pdf.CellFormat(colWidths[i], 10, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 10)
		for count := 0; count < internsPerPage && rowIndex < len(dataRows); count++ {
			pdf.SetX(startX)
			for i, data := range dataRows[rowIndex] {
				align := "L"
				if i == 0 {
					align = "C"
				}
				pdf.CellFormat(colWidths[i], 8.1, fitCell(pdf, data, colWidths[i]), "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
			rowIndex++
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

// fitCell shortens s with an ellipsis until it fits a column of width w.
func fitCell(pdf *gofpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s)+6 <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...")+6 > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}
