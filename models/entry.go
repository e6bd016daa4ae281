package models

import "time"

type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "pending"
	EntryStatusApproved EntryStatus = "approved"
)

// DefaultRating присваивается участнику без записи в таблице рейтинга.
const DefaultRating = 1000

// Entry - регистрация (одиночная или парная) в конкретном разделе турнира.
type Entry struct {
	ID           int         `json:"id" db:"id"`
	ContentID    int         `json:"content_id" db:"content_id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	TeamID       *int        `json:"team_id,omitempty" db:"team_id"`
	PairKey      *string     `json:"pair_key,omitempty" db:"pair_key"`
	Status       EntryStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	Members []EntryMember `json:"members,omitempty" db:"-"`
}

type EntryMember struct {
	ID        int       `json:"id" db:"id"`
	EntryID   int       `json:"entry_id" db:"entry_id"`
	ContentID int       `json:"content_id" db:"content_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Position  int       `json:"position" db:"position"` // 1 или 2 для пары
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
