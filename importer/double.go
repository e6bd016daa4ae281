package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-registration/models"
)

type DoubleInput struct {
	Content *models.TournamentContent
	Rows    []models.ParsedDoubleEntry
	Index   *DedupIndex
}

// doubleBatch хранит пары и игроков, уже принятых в текущем импорте.
type doubleBatch struct {
	pairs map[string]struct{}
	users map[int]struct{}
}

type player struct {
	n     int
	name  string
	email string
	raw   string
	ident *models.Identity
	team  *int
}

func (p *player) field(suffix string) string {
	return fmt.Sprintf("player%d%s", p.n, suffix)
}

// ValidateDouble checks paired entries. A pair becomes visible to later rows
// only once it is fully accepted.
func ValidateDouble(ctx context.Context, in DoubleInput, deps Resolvers) (*Result[models.ValidatedDoubleEntry], error) {
	if in.Content == nil {
		return nil, ErrContentRequired
	}
	if in.Content.ContentType != models.ContentDouble {
		return nil, ErrContentTypeMismatch
	}

	res := &Result[models.ValidatedDoubleEntry]{
		Items:     make([]models.ValidatedDoubleEntry, 0, len(in.Rows)),
		Errors:    make([]models.ValidationError, 0),
		TotalRows: len(in.Rows),
	}

	capacity, capErr := CheckCapacity(in.Content, in.Index.Occupancy(), len(in.Rows))
	res.Capacity = capacity
	if capErr != nil {
		res.Errors = append(res.Errors, *capErr)
		return res, nil
	}

	batch := &doubleBatch{
		pairs: make(map[string]struct{}),
		users: make(map[int]struct{}),
	}
	for _, row := range in.Rows {
		res.add(validateDoubleRow(ctx, in.Content, row, in.Index, batch, deps))
	}
	return res, nil
}

func validateDoubleRow(
	ctx context.Context,
	content *models.TournamentContent,
	row models.ParsedDoubleEntry,
	index *DedupIndex,
	batch *doubleBatch,
	deps Resolvers,
) RowResult[models.ValidatedDoubleEntry] {
	errs := &rowErrors{row: row.Row}
	players := []*player{
		{n: 1, name: strings.TrimSpace(row.Player1Name), email: NormalizeEmail(row.Player1Email), raw: row.Player1Email},
		{n: 2, name: strings.TrimSpace(row.Player2Name), email: NormalizeEmail(row.Player2Email), raw: row.Player2Email},
	}

	emailsOK := true
	for _, p := range players {
		if p.name == "" {
			errs.add(p.field("Name"), fmt.Sprintf("player%d %s", p.n, msgNameRequired), "")
		}
		if !IsValidEmail(p.email) {
			errs.add(p.field("Email"), fmt.Sprintf("player%d %s", p.n, msgEmailInvalid), p.raw)
			emailsOK = false
		}
	}
	if !emailsOK {
		return reject[models.ValidatedDoubleEntry](errs)
	}

	p1, p2 := players[0], players[1]
	if p1.email == p2.email {
		errs.add("player2Email", msgSamePlayer, p2.email)
		return reject[models.ValidatedDoubleEntry](errs)
	}

	resolved := true
	for _, p := range players {
		ident, err := deps.Identities.ByEmail(ctx, p.email)
		switch {
		case err != nil:
			errs.add(p.field("Email"), fmt.Sprintf("player%d: %s", p.n, msgUserLookupFailed), p.email)
			resolved = false
		case ident == nil:
			errs.add(p.field("Email"), fmt.Sprintf("player%d: %s", p.n, msgUserNotFound), p.email)
			resolved = false
		default:
			p.ident = ident
		}
	}
	if !resolved {
		return reject[models.ValidatedDoubleEntry](errs)
	}

	key := PairKey(p1.ident.UserID, p2.ident.UserID)
	switch {
	case index.HasPair(key):
		errs.add("pair", msgPairRegistered, key)
	case hasKey(batch.pairs, key):
		errs.add("pair", msgPairDuplicate, key)
	default:
		for _, p := range players {
			if index.HasUser(p.ident.UserID) {
				errs.add(p.field("Email"), fmt.Sprintf("player%d: %s", p.n, msgAlreadyRegistered), p.email)
			} else if _, taken := batch.users[p.ident.UserID]; taken {
				errs.add(p.field("Email"), fmt.Sprintf("player%d: %s", p.n, msgPlayerInAnotherEntry), p.email)
			}
		}
	}

	checkDoubleGender(content, p1.ident, p2.ident, errs)
	checkTeamCohesion(ctx, content, players, errs, deps)

	if !errs.empty() {
		return reject[models.ValidatedDoubleEntry](errs)
	}

	batch.pairs[key] = struct{}{}
	batch.users[p1.ident.UserID] = struct{}{}
	batch.users[p2.ident.UserID] = struct{}{}

	return accept(models.ValidatedDoubleEntry{
		Player1Name:   p1.name,
		Player1UserID: p1.ident.UserID,
		Player1Email:  p1.email,
		Player1TeamID: p1.team,
		Player2Name:   p2.name,
		Player2UserID: p2.ident.UserID,
		Player2Email:  p2.email,
		Player2TeamID: p2.team,
		Row:           row.Row,
	})
}

// checkTeamCohesion requires both players to be on the same team of the
// tournament. Missing teams are reported per player instead of as a mismatch.
func checkTeamCohesion(ctx context.Context, content *models.TournamentContent, players []*player, errs *rowErrors, deps Resolvers) {
	complete := true
	for _, p := range players {
		teamID, err := deps.Affiliations.TeamOf(ctx, p.ident.UserID, content.TournamentID)
		if err != nil {
			errs.add(p.field("Team"), fmt.Sprintf("player%d: %s", p.n, msgTeamLookupFailed), "")
			complete = false
			continue
		}
		if teamID == nil {
			errs.add(p.field("Team"), fmt.Sprintf("player%d %s", p.n, msgNoTeam), p.email)
			complete = false
			continue
		}
		p.team = teamID
	}
	if complete && *players[0].team != *players[1].team {
		errs.add("team", msgSameTeam, fmt.Sprintf("%d,%d", *players[0].team, *players[1].team))
	}
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
