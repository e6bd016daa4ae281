package models

import "time"

// TeamRole - каноническая роль участника команды.
type TeamRole string

const (
	RoleTeamManager TeamRole = "team_manager"
	RoleCoach       TeamRole = "coach"
	RoleAthlete     TeamRole = "athlete"
)

// Valid reports whether r is one of the canonical roles.
func (r TeamRole) Valid() bool {
	switch r {
	case RoleTeamManager, RoleCoach, RoleAthlete:
		return true
	}
	return false
}

type Team struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description,omitempty" db:"description"`
	CreatedBy    int       `json:"created_by" db:"created_by"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	Members []TeamMember `json:"members,omitempty" db:"-"`
}

type TeamMember struct {
	ID           int       `json:"id" db:"id"`
	TeamID       int       `json:"team_id" db:"team_id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	Role         TeamRole  `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
