package importer

import (
	"context"
	"errors"

	"github.com/Dosada05/tournament-registration/models"
)

type fakeDirectory struct {
	users    map[string]*models.Identity
	teams    map[int]int
	failOn   map[string]bool
	byEmails int
}

func newDirectory() *fakeDirectory {
	return &fakeDirectory{
		users:  make(map[string]*models.Identity),
		teams:  make(map[int]int),
		failOn: make(map[string]bool),
	}
}

func (d *fakeDirectory) addUser(id int, email string, gender *models.Gender) *fakeDirectory {
	d.users[email] = &models.Identity{UserID: id, Email: email, Name: email, Gender: gender}
	return d
}

func (d *fakeDirectory) setTeam(userID, teamID int) *fakeDirectory {
	d.teams[userID] = teamID
	return d
}

func (d *fakeDirectory) ByEmail(_ context.Context, email string) (*models.Identity, error) {
	d.byEmails++
	if d.failOn[email] {
		return nil, errors.New("connection reset")
	}
	return d.users[email], nil
}

func (d *fakeDirectory) TeamOf(_ context.Context, userID, _ int) (*int, error) {
	id, ok := d.teams[userID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (d *fakeDirectory) resolvers() Resolvers {
	return Resolvers{Identities: d, Affiliations: d}
}

func gender(g models.Gender) *models.Gender { return &g }

func intPtr(v int) *int { return &v }

func content(kind models.ContentType, req models.GenderRequirement, max *int) *models.TournamentContent {
	return &models.TournamentContent{
		ID:                1,
		TournamentID:      10,
		Name:              "test",
		ContentType:       kind,
		GenderRequirement: req,
		MaxEntries:        max,
	}
}

// persisted builds entries with the given member user ids.
func persisted(members ...[]int) []*models.Entry {
	out := make([]*models.Entry, 0, len(members))
	for i, ids := range members {
		e := &models.Entry{ID: i + 1, ContentID: 1}
		for pos, id := range ids {
			e.Members = append(e.Members, models.EntryMember{EntryID: e.ID, UserID: id, Position: pos + 1})
		}
		out = append(out, e)
	}
	return out
}

func fieldsOf(errs []models.ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}
