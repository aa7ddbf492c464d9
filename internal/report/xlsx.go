package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/realmath/problempipeline/internal/models"
)

const reviewSheet = "problems"

// WriteWorkbook saves records as an XLSX review workbook at path, with the
// same columns as the CSV table, a frozen header row and wrapped problem
// text.
func WriteWorkbook(path string, records []models.ProblemRecord, withSource bool) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reviewSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := ProblemHeader(withSource)
	if err := f.SetSheetRow(reviewSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		row := []any{r.Page, r.ProblemNumber, r.Text}
		if withSource {
			row = append([]any{r.Source}, row...)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(reviewSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	textCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetColStyle(reviewSheet, textCol, wrap); err != nil {
		return fmt.Errorf("failed to style text column: %w", err)
	}
	if err := f.SetColWidth(reviewSheet, textCol, textCol, 80); err != nil {
		return fmt.Errorf("failed to size text column: %w", err)
	}
	if err := f.SetPanes(reviewSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}
