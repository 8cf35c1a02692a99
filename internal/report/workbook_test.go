package report

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestWriteProducesRankedSheet(t *testing.T) {
	rows := []Row{
		{Rank: 1, Name: "Asha", Email: "asha@example.com", Score: 7, Feedback: "Q: Explain indexes\nA: Clear."},
		{Rank: 2, Name: "Ravi", Email: "ravi@example.com", Score: 0, Feedback: "No feedback available"},
	}
	var buf bytes.Buffer
	if err := Write(&buf, rows); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("unexpected sheets %v", sheets)
	}
	got, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(got))
	}
	wantHeader := []string{"Rank", "Candidate Name", "Email", "Score", "Feedback"}
	for i, h := range wantHeader {
		if got[0][i] != h {
			t.Fatalf("header %d: expected %q, got %q", i, h, got[0][i])
		}
	}
	if got[1][0] != "1" || got[1][1] != "Asha" || got[1][3] != "7.0/10" {
		t.Fatalf("unexpected first row %v", got[1])
	}
	if got[2][3] != "0.0/10" || got[2][4] != "No feedback available" {
		t.Fatalf("unexpected second row %v", got[2])
	}

	width, err := f.GetColWidth(SheetName, "E")
	if err != nil || width != 60 {
		t.Fatalf("expected feedback column width 60, got %v (%v)", width, err)
	}
	height, err := f.GetRowHeight(SheetName, 2)
	if err != nil || height != 60 {
		t.Fatalf("expected data row height 60, got %v (%v)", height, err)
	}
}

func TestWriteEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
