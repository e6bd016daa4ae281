package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Dosada05/tournament-registration/models"
)

func buildXLSX(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadWorkbook_XLSX(t *testing.T) {
	data := buildXLSX(t, map[string][][]interface{}{
		"Команды":   {{"Name", "Description"}, {"Tigers", "fast"}},
		"Участники": {{"Team", "Name", "Role", "Email"}, {}, {"Tigers", "X", "manager", "x@x.com"}},
	}, "Команды", "Участники")

	wb, err := ReadWorkbook(bytes.NewReader(data), "Roster.XLSX")
	require.NoError(t, err)
	assert.Equal(t, []string{"Команды", "Участники"}, wb.SheetNames())

	teams, err := wb.Sheet(TeamsSheet...)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Tigers", teams[1].Cell(0))

	members, err := wb.Sheet(MembersSheet...)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.True(t, members[1].IsBlank())
	assert.Equal(t, 3, members[2].Number)
	assert.Equal(t, "x@x.com", members[2].Cell(3))
}

func TestReadWorkbook_CSV(t *testing.T) {
	data := "\xef\xbb\xbfname,email\nA,a@x.com\n\nB\n"

	wb, err := ReadWorkbook(strings.NewReader(data), "entries.csv")
	require.NoError(t, err)
	rows, err := wb.First()
	require.NoError(t, err)
	assert.Equal(t, []models.RawRow{
		{Number: 1, Cells: []string{"name", "email"}},
		{Number: 2, Cells: []string{"A", "a@x.com"}},
		{Number: 4, Cells: []string{"B"}},
	}, rows)

	_, err = wb.Sheet(TeamsSheet...)
	assert.ErrorIs(t, err, ErrMissingSheet)
}

func TestReadWorkbook_Unsupported(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("x"), "entries.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = ReadWorkbook(strings.NewReader("not a zip"), "entries.xlsx")
	assert.Error(t, err)
}

func TestBuildErrorReport(t *testing.T) {
	data, err := BuildErrorReport([]models.ValidationError{
		{Row: 0, Field: "capacity", Message: "only 0 slots available, but the import contains 1 entries", Value: "1"},
		{Row: 3, Field: "email", Message: "user not found", Value: "ghost@x.com"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Row", "Field", "Message", "Value"}, rows[0])
	assert.Equal(t, []string{"3", "email", "user not found", "ghost@x.com"}, rows[2])
}
