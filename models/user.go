package models

import "time"

// Gender пола пользователя. Может быть не задан.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type User struct {
	ID        int       `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Nickname  *string   `json:"nickname,omitempty"`
	Email     string    `json:"email"`
	Gender    *Gender   `json:"gender,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName returns "First Last", falling back to the nickname.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" && u.Nickname != nil {
		return *u.Nickname
	}
	return name
}

// Identity is the resolved view of a user used by the import engine.
type Identity struct {
	UserID int     `json:"user_id"`
	Email  string  `json:"email"`
	Name   string  `json:"name"`
	Gender *Gender `json:"gender,omitempty"`
}
