package models

// RawRow - одна строка исходной таблицы. Number начинается с 1 и совпадает
// с номером строки в файле.
type RawRow struct {
	Number int      `json:"row"`
	Cells  []string `json:"cells"`
}

// Cell returns the trimmed value of column i or "" when the row is shorter.
func (r RawRow) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return trimCell(r.Cells[i])
}

// IsBlank reports whether every cell of the row is empty.
func (r RawRow) IsBlank() bool {
	for i := range r.Cells {
		if r.Cell(i) != "" {
			return false
		}
	}
	return true
}

type ParsedSingleEntry struct {
	Row   int    `json:"row"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ParsedDoubleEntry struct {
	Row          int    `json:"row"`
	Player1Name  string `json:"player1_name"`
	Player1Email string `json:"player1_email"`
	Player2Name  string `json:"player2_name"`
	Player2Email string `json:"player2_email"`
}

// ParsedTeamRow - строка листа команд.
type ParsedTeamRow struct {
	Row         int     `json:"row"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// ParsedMemberRow - строка листа участников команд. Role хранится в исходном виде.
type ParsedMemberRow struct {
	Row      int    `json:"row"`
	TeamName string `json:"team_name"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

// ValidationError describes one problem found in one row. Row 0 means the problem
// belongs to the whole file (e.g. capacity).
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
	// Sheet заполняется только при импорте команд, где строки идут из двух листов.
	Sheet string `json:"sheet,omitempty"`
}

type ValidatedSingleEntry struct {
	Name   string `json:"name"`
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	TeamID *int   `json:"team_id"`
	Row    int    `json:"row"`
}

type ValidatedDoubleEntry struct {
	Player1Name   string `json:"player1_name"`
	Player1UserID int    `json:"player1_user_id"`
	Player1Email  string `json:"player1_email"`
	Player1TeamID *int   `json:"player1_team_id"`
	Player2Name   string `json:"player2_name"`
	Player2UserID int    `json:"player2_user_id"`
	Player2Email  string `json:"player2_email"`
	Player2TeamID *int   `json:"player2_team_id"`
	Row           int    `json:"row"`
}

type RosterMember struct {
	UserID int      `json:"user_id"`
	Role   TeamRole `json:"role"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Row    int      `json:"row"`
}

// RosterTeamBatch - команда, собранная из строк листа участников по имени команды.
type RosterTeamBatch struct {
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Members     []RosterMember `json:"members"`
	Row         int            `json:"row"`
}

// Managers returns the user ids of members holding the team_manager role.
func (b *RosterTeamBatch) Managers() []int {
	ids := make([]int, 0, 1)
	for _, m := range b.Members {
		if m.Role == RoleTeamManager {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

type CapacityInfo struct {
	MaxEntries     *int `json:"max_entries"`
	CurrentEntries int  `json:"current_entries"`
	RemainingSlots *int `json:"remaining_slots"`
}

type ImportSummary struct {
	TotalRows      int           `json:"total_rows"`
	ValidRows      int           `json:"valid_rows"`
	RowsWithErrors int           `json:"rows_with_errors"`
	Capacity       *CapacityInfo `json:"capacity,omitempty"`
}

// PreviewResult - ответ этапа предпросмотра импорта. Ничего не записывается в БД.
type PreviewResult[T any] struct {
	Valid     bool              `json:"valid"`
	ImportID  string            `json:"import_id"`
	Items     []T               `json:"items"`
	Errors    []ValidationError `json:"errors"`
	Summary   ImportSummary     `json:"summary"`
	ReportURL *string           `json:"report_url,omitempty"`
}

type ConfirmResult struct {
	CreatedCount int   `json:"created_count"`
	CreatedIDs   []int `json:"created_ids"`
}

type TeamConfirmResult struct {
	CreatedTeams   int   `json:"created_teams"`
	CreatedMembers int   `json:"created_members"`
	TeamIDs        []int `json:"team_ids"`
}
