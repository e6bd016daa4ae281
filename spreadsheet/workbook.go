// Package spreadsheet превращает загруженные таблицы (xlsx, csv, Google Sheets)
// в последовательности строк для движка импорта и строит отчёт об ошибках.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/Dosada05/tournament-registration/models"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrMissingSheet    = errors.New("required sheet is missing")
	ErrNoSheets        = errors.New("workbook has no sheets")
)

var (
	TeamsSheet   = []string{"teams", "команды", "đội"}
	MembersSheet = []string{"members", "участники", "состав", "thành viên"}
)

type sheet struct {
	name string
	rows []models.RawRow
}

// Workbook - прочитанные листы в исходном порядке.
type Workbook struct {
	sheets []sheet
}

// ReadWorkbook picks the reader by file extension. CSV files become a
// workbook with one sheet.
func ReadWorkbook(r io.Reader, filename string) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		return readXLSX(data)
	case ".csv":
		return readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
}

func readXLSX(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrNoSheets
	}

	wb := &Workbook{sheets: make([]sheet, 0, len(names))}
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		wb.sheets = append(wb.sheets, sheet{name: name, rows: numberRows(rows)})
	}
	return wb, nil
}

func readCSV(data []byte) (*Workbook, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var rows []models.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		// пустые строки csv.Reader пропускает сам, номер берём из позиции поля
		line, _ := reader.FieldPos(0)
		rows = append(rows, models.RawRow{Number: line, Cells: record})
	}
	return &Workbook{sheets: []sheet{{name: "csv", rows: rows}}}, nil
}

// FromValues builds a single-sheet workbook from already split cells.
func FromValues(name string, values [][]string) *Workbook {
	return &Workbook{sheets: []sheet{{name: name, rows: numberRows(values)}}}
}

func numberRows(values [][]string) []models.RawRow {
	rows := make([]models.RawRow, 0, len(values))
	for i, cells := range values {
		rows = append(rows, models.RawRow{Number: i + 1, Cells: cells})
	}
	return rows
}

// First returns rows of the first sheet.
func (w *Workbook) First() ([]models.RawRow, error) {
	if w == nil || len(w.sheets) == 0 {
		return nil, ErrNoSheets
	}
	return w.sheets[0].rows, nil
}

// Sheet ищет лист по одному из имён без учёта регистра.
func (w *Workbook) Sheet(aliases ...string) ([]models.RawRow, error) {
	if w != nil {
		for _, s := range w.sheets {
			name := norm.NFC.String(strings.ToLower(strings.TrimSpace(s.name)))
			for _, alias := range aliases {
				if name == alias {
					return s.rows, nil
				}
			}
		}
	}
	if len(aliases) == 0 {
		return nil, ErrMissingSheet
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingSheet, aliases[0])
}

func (w *Workbook) SheetNames() []string {
	if w == nil {
		return nil
	}
	names := make([]string, 0, len(w.sheets))
	for _, s := range w.sheets {
		names = append(names, s.name)
	}
	return names
}
