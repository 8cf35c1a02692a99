package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of an exported interview report.
const SheetName = "Interview Report"

var (
	headers      = []string{"Rank", "Candidate Name", "Email", "Score", "Feedback"}
	columnWidths = []float64{8, 25, 30, 12, 60}
)

const dataRowHeight = 60

// Row is one ranked candidate line.
type Row struct {
	Rank     int
	Name     string
	Email    string
	Score    float64
	Feedback string
}

// FormatScore renders a ranking score as shown in the Score column.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.1f/10", score)
}

// Write renders rows into an xlsx workbook and streams it to w. Rows are
// written in the order given.
func Write(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"10B981"}},
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return fmt.Errorf("cell style: %w", err)
	}
	feedbackStyle, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("feedback style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		line := i + 2
		values := []any{r.Rank, r.Name, r.Email, FormatScore(r.Score), r.Feedback}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, line)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", line), fmt.Sprintf("D%d", line), cellStyle); err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, fmt.Sprintf("E%d", line), fmt.Sprintf("E%d", line), feedbackStyle); err != nil {
			return err
		}
		if err := f.SetRowHeight(SheetName, line, dataRowHeight); err != nil {
			return err
		}
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
