package models

// ContentType определяет форму заявки: одиночная или парная.
type ContentType string

const (
	ContentSingle ContentType = "single"
	ContentDouble ContentType = "double"
)

// GenderRequirement is the eligibility rule of a content.
type GenderRequirement string

const (
	GenderAny   GenderRequirement = "none"
	GenderMen   GenderRequirement = "male"
	GenderWomen GenderRequirement = "female"
	GenderMixed GenderRequirement = "mixed"
)

// TournamentContent is one competition unit of a tournament (e.g. "Men's singles")
// that entries are registered into.
type TournamentContent struct {
	ID                int               `json:"id" db:"id"`
	TournamentID      int               `json:"tournament_id" db:"tournament_id"`
	Name              string            `json:"name" db:"name"`
	ContentType       ContentType       `json:"content_type" db:"content_type"`
	GenderRequirement GenderRequirement `json:"gender_requirement" db:"gender_requirement"`
	MaxEntries        *int              `json:"max_entries,omitempty" db:"max_entries"` // nil - без ограничения
}

// RequiredGender returns the concrete gender the content demands, if any.
func (c *TournamentContent) RequiredGender() (Gender, bool) {
	switch c.GenderRequirement {
	case GenderMen:
		return GenderMale, true
	case GenderWomen:
		return GenderFemale, true
	default:
		return "", false
	}
}
