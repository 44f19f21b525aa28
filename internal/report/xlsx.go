package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mcules/student-success/internal/history"
	"github.com/mcules/student-success/internal/student"
)

const (
	XLSXFileName = "prediction_history.xlsx"
	historySheet = "Predictions"
)

// XLSX exports stored predictions as a workbook, one row per prediction
// followed by the form inputs it was made from.
func XLSX(entries []history.Entry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return nil, err
	}

	fields := student.Fields()
	headers := []any{"ID", "Created At", "Model", "Outcome", "Class", "Confidence", "Alignment", "Fabricated"}
	for _, fs := range fields {
		headers = append(headers, fs.Name)
	}
	if err := f.SetSheetRow(historySheet, "A1", &headers); err != nil {
		return nil, err
	}

	for i, e := range entries {
		var confidence float64
		if e.Class >= 0 && e.Class < len(e.Probabilities) {
			confidence = e.Probabilities[e.Class]
		}
		row := []any{
			e.ID,
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			e.ModelVersion,
			e.Label,
			e.Class,
			confidence,
			e.Alignment,
			e.Fabricated,
		}
		for _, fs := range fields {
			row = append(row, fs.Get(&e.Inputs))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(historySheet, "A", "A", 38)
	_ = f.SetColWidth(historySheet, "B", "B", 20)
	_ = f.SetColWidth(historySheet, "C", "C", 24)
	_ = f.SetPanes(historySheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
