package spreadsheet

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// GoogleSheetsSource reads whole spreadsheets through the Sheets API with a
// service account.
type GoogleSheetsSource struct {
	srv *sheetsv4.Service
}

func NewGoogleSheetsSource(ctx context.Context, serviceAccountJSONPath string) (*GoogleSheetsSource, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &GoogleSheetsSource{srv: srv}, nil
}

// Load reads every sheet of the spreadsheet into a Workbook.
func (g *GoogleSheetsSource) Load(ctx context.Context, spreadsheetID string) (*Workbook, error) {
	meta, err := g.srv.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetID, err)
	}
	if len(meta.Sheets) == 0 {
		return nil, ErrNoSheets
	}

	wb := &Workbook{sheets: make([]sheet, 0, len(meta.Sheets))}
	for _, s := range meta.Sheets {
		if s.Properties == nil {
			continue
		}
		title := s.Properties.Title
		resp, err := g.srv.Spreadsheets.Values.Get(spreadsheetID, sheetRange(title)).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", title, err)
		}
		wb.sheets = append(wb.sheets, sheet{name: title, rows: numberRows(stringify(resp.Values))})
	}
	return wb, nil
}

// sheetRange строит диапазон A1 для листа, имя в кавычках.
func sheetRange(title string) string {
	return fmt.Sprintf("'%s'!A:Z", strings.ReplaceAll(title, "'", "''"))
}

func stringify(values [][]interface{}) [][]string {
	out := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, fmt.Sprint(v))
		}
		out = append(out, cells)
	}
	return out
}
