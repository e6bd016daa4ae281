package importer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Dosada05/tournament-registration/models"
)

type column struct {
	name     string
	required bool
	aliases  []string
}

var (
	singleColumns = []column{
		{name: "name", required: true, aliases: []string{"name", "full name", "player name", "имя", "фио", "họ tên", "tên"}},
		{name: "email", required: true, aliases: []string{"email", "e-mail", "mail", "почта", "эл. почта", "электронная почта"}},
	}
	doubleColumns = []column{
		{name: "player1_name", required: true, aliases: []string{"player1 name", "player 1 name", "игрок 1", "имя игрока 1", "vđv 1", "tên vđv 1"}},
		{name: "player1_email", required: true, aliases: []string{"player1 email", "player 1 email", "email игрока 1", "почта игрока 1", "email vđv 1"}},
		{name: "player2_name", required: true, aliases: []string{"player2 name", "player 2 name", "игрок 2", "имя игрока 2", "vđv 2", "tên vđv 2"}},
		{name: "player2_email", required: true, aliases: []string{"player2 email", "player 2 email", "email игрока 2", "почта игрока 2", "email vđv 2"}},
	}
	teamColumns = []column{
		{name: "name", required: true, aliases: []string{"name", "team name", "team", "команда", "название", "название команды", "tên đội", "đội"}},
		{name: "description", aliases: []string{"description", "описание", "mô tả"}},
	}
	memberColumns = []column{
		{name: "team_name", required: true, aliases: []string{"team name", "team", "команда", "название команды", "tên đội", "đội"}},
		{name: "name", required: true, aliases: []string{"name", "full name", "member name", "имя", "фио", "họ tên", "tên"}},
		{name: "role", required: true, aliases: []string{"role", "роль", "vai trò", "chức vụ"}},
		{name: "email", required: true, aliases: []string{"email", "e-mail", "mail", "почта", "электронная почта"}},
	}
)

// foldKey приводит заголовок или название роли к сравнимому виду. Excel и
// Google Sheets нередко отдают вьетнамские диакритики в форме NFD.
func foldKey(s string) string {
	s = norm.NFC.String(strings.ToLower(strings.ReplaceAll(s, "_", " ")))
	return strings.Join(strings.Fields(s), " ")
}

func normalizeHeader(h string) string {
	h = foldKey(h)
	h = strings.Trim(strings.TrimSpace(h), "*:")
	return strings.Join(strings.Fields(h), " ")
}

// mapColumns reads the header row and returns the cell index of every known
// column; optional columns that are absent map to -1.
func mapColumns(header models.RawRow, cols []column) (map[string]int, error) {
	byAlias := make(map[string]int, len(header.Cells))
	for i := range header.Cells {
		key := normalizeHeader(header.Cell(i))
		if key == "" {
			continue
		}
		if _, dup := byAlias[key]; !dup {
			byAlias[key] = i
		}
	}

	index := make(map[string]int, len(cols))
	for _, c := range cols {
		index[c.name] = -1
		for _, alias := range c.aliases {
			if i, ok := byAlias[alias]; ok {
				index[c.name] = i
				break
			}
		}
		if index[c.name] < 0 && c.required {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c.name)
		}
	}
	return index, nil
}

// dataRows splits the header off and drops blank rows. Row numbers stay as
// they were in the source file.
func dataRows(rows []models.RawRow, cols []column) (map[string]int, []models.RawRow, error) {
	if len(rows) == 0 {
		return nil, nil, ErrEmptySheet
	}
	index, err := mapColumns(rows[0], cols)
	if err != nil {
		return nil, nil, err
	}
	data := make([]models.RawRow, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if !r.IsBlank() {
			data = append(data, r)
		}
	}
	if len(data) == 0 {
		return nil, nil, ErrNoDataRows
	}
	return index, data, nil
}

func ParseSingleRows(rows []models.RawRow) ([]models.ParsedSingleEntry, error) {
	index, data, err := dataRows(rows, singleColumns)
	if err != nil {
		return nil, err
	}
	out := make([]models.ParsedSingleEntry, 0, len(data))
	for _, r := range data {
		out = append(out, models.ParsedSingleEntry{
			Row:   r.Number,
			Name:  r.Cell(index["name"]),
			Email: r.Cell(index["email"]),
		})
	}
	return out, nil
}

func ParseDoubleRows(rows []models.RawRow) ([]models.ParsedDoubleEntry, error) {
	index, data, err := dataRows(rows, doubleColumns)
	if err != nil {
		return nil, err
	}
	out := make([]models.ParsedDoubleEntry, 0, len(data))
	for _, r := range data {
		out = append(out, models.ParsedDoubleEntry{
			Row:          r.Number,
			Player1Name:  r.Cell(index["player1_name"]),
			Player1Email: r.Cell(index["player1_email"]),
			Player2Name:  r.Cell(index["player2_name"]),
			Player2Email: r.Cell(index["player2_email"]),
		})
	}
	return out, nil
}

// ParseTeamRows разбирает лист команд. Пустое описание превращается в nil.
func ParseTeamRows(rows []models.RawRow) ([]models.ParsedTeamRow, error) {
	index, data, err := dataRows(rows, teamColumns)
	if err != nil {
		return nil, err
	}
	out := make([]models.ParsedTeamRow, 0, len(data))
	for _, r := range data {
		t := models.ParsedTeamRow{Row: r.Number, Name: r.Cell(index["name"])}
		if d := r.Cell(index["description"]); d != "" {
			t.Description = &d
		}
		out = append(out, t)
	}
	return out, nil
}

func ParseMemberRows(rows []models.RawRow) ([]models.ParsedMemberRow, error) {
	index, data, err := dataRows(rows, memberColumns)
	if err != nil {
		return nil, err
	}
	out := make([]models.ParsedMemberRow, 0, len(data))
	for _, r := range data {
		out = append(out, models.ParsedMemberRow{
			Row:      r.Number,
			TeamName: r.Cell(index["team_name"]),
			Name:     r.Cell(index["name"]),
			Role:     r.Cell(index["role"]),
			Email:    r.Cell(index["email"]),
		})
	}
	return out, nil
}
