package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Dosada05/tournament-registration/models"
)

const reportSheet = "Errors"

// ReportContentType is the MIME type of BuildErrorReport output.
const ReportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var reportHeader = []interface{}{"Row", "Field", "Message", "Value"}

// BuildErrorReport renders validation errors into an xlsx workbook, one error
// per line.
func BuildErrorReport(errs []models.ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, e := range errs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{e.Row, e.Field, e.Message, e.Value}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(reportSheet, "C", "C", 60); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return buf.Bytes(), nil
}
