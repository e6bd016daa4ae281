package importer

import (
	"context"
	"strings"

	"github.com/Dosada05/tournament-registration/models"
)

const (
	msgTeamNameRequired   = "team name is required"
	msgRoleInvalid        = "role must be one of team_manager, coach, athlete"
	msgAlreadyOnTeam      = "user is already a member of a team in this tournament"
	msgTeamNotDeclared    = "team is not declared in the teams sheet"
	msgTeamDuplicate      = "duplicate team name in this import"
	msgTeamExists         = "a team with this name already exists in this tournament"
	msgTeamNoMembers      = "team must have at least 1 member"
	msgTeamNoManager      = "team must have at least one team_manager"
	msgImporterNotManager = "importer must be a team_manager of this team"
)

// Имена листов в ошибках импорта команд.
const (
	SheetTeams   = "teams"
	SheetMembers = "members"
)

// RosterInput - листы команд и участников одного турнира.
type RosterInput struct {
	TournamentID int
	ImporterID   int
	Teams        []models.ParsedTeamRow
	Members      []models.ParsedMemberRow
	// ExistingTeamNames - имена команд, уже созданных в турнире.
	ExistingTeamNames []string
}

// TeamKey is the case-insensitive grouping key of a team name.
func TeamKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

type rosterMember struct {
	teamKey string
	member  models.RosterMember
}

// ValidateRosters checks member rows one by one, groups the accepted ones by
// team and then applies the team rules to every declared team. Team-level
// errors come first in the returned list.
func ValidateRosters(ctx context.Context, in RosterInput, deps Resolvers) ([]models.RosterTeamBatch, []models.ValidationError) {
	declared := make(map[string]struct{}, len(in.Teams))
	for _, t := range in.Teams {
		if key := TeamKey(t.Name); key != "" {
			declared[key] = struct{}{}
		}
	}

	memberErrors := make([]models.ValidationError, 0)
	grouped := make(map[string][]models.RosterMember)
	emails := make(map[string]struct{})
	for _, row := range in.Members {
		res := validateMemberRow(ctx, in.TournamentID, row, declared, emails, deps)
		if res.Accepted == nil {
			memberErrors = append(memberErrors, res.Rejected...)
			continue
		}
		grouped[res.Accepted.teamKey] = append(grouped[res.Accepted.teamKey], res.Accepted.member)
	}

	existing := make(map[string]struct{}, len(in.ExistingTeamNames))
	for _, name := range in.ExistingTeamNames {
		existing[TeamKey(name)] = struct{}{}
	}

	teamErrors := make([]models.ValidationError, 0)
	batches := make([]models.RosterTeamBatch, 0, len(in.Teams))
	seen := make(map[string]struct{}, len(in.Teams))
	for _, t := range in.Teams {
		errs := &rowErrors{row: t.Row}
		name := strings.Join(strings.Fields(t.Name), " ")
		key := TeamKey(name)

		if key == "" {
			errs.add("name", msgTeamNameRequired, "")
			teamErrors = append(teamErrors, errs.errs...)
			continue
		}
		if _, dup := seen[key]; dup {
			errs.add("name", msgTeamDuplicate, name)
			teamErrors = append(teamErrors, errs.errs...)
			continue
		}
		seen[key] = struct{}{}
		if _, taken := existing[key]; taken {
			errs.add("name", msgTeamExists, name)
		}

		batch := models.RosterTeamBatch{
			Name:        name,
			Description: t.Description,
			Members:     grouped[key],
			Row:         t.Row,
		}
		checkRosterAuthority(&batch, in.ImporterID, errs)

		if !errs.empty() {
			teamErrors = append(teamErrors, errs.errs...)
			continue
		}
		batches = append(batches, batch)
	}

	tagSheet(teamErrors, SheetTeams)
	tagSheet(memberErrors, SheetMembers)
	return batches, append(teamErrors, memberErrors...)
}

func tagSheet(errs []models.ValidationError, sheet string) {
	for i := range errs {
		errs[i].Sheet = sheet
	}
}

// checkRosterAuthority: не пустой состав, есть менеджер, импортирующий - один из менеджеров.
func checkRosterAuthority(batch *models.RosterTeamBatch, importerID int, errs *rowErrors) {
	if len(batch.Members) == 0 {
		errs.add("members", msgTeamNoMembers, batch.Name)
		return
	}
	managers := batch.Managers()
	if len(managers) == 0 {
		errs.add("members", msgTeamNoManager, batch.Name)
		return
	}
	for _, id := range managers {
		if id == importerID {
			return
		}
	}
	errs.add("members", msgImporterNotManager, batch.Name)
}

func validateMemberRow(
	ctx context.Context,
	tournamentID int,
	row models.ParsedMemberRow,
	declared map[string]struct{},
	emails map[string]struct{},
	deps Resolvers,
) RowResult[rosterMember] {
	errs := &rowErrors{row: row.Row}
	key := TeamKey(row.TeamName)
	name := strings.TrimSpace(row.Name)
	email := NormalizeEmail(row.Email)
	role := NormalizeRole(row.Role)

	if key == "" {
		errs.add("team_name", msgTeamNameRequired, "")
	} else if _, ok := declared[key]; !ok {
		errs.add("team_name", msgTeamNotDeclared, row.TeamName)
	}
	if name == "" {
		errs.add("name", msgNameRequired, "")
	}
	if !role.Valid() {
		errs.add("role", msgRoleInvalid, row.Role)
	}
	if !IsValidEmail(email) {
		errs.add("email", msgEmailInvalid, row.Email)
		return reject[rosterMember](errs)
	}
	if _, dup := emails[email]; dup {
		errs.add("email", msgDuplicateEmail, email)
		return reject[rosterMember](errs)
	}

	ident, err := deps.Identities.ByEmail(ctx, email)
	if err != nil {
		errs.add("email", msgUserLookupFailed, email)
		return reject[rosterMember](errs)
	}
	if ident == nil {
		errs.add("email", msgUserNotFound, email)
		return reject[rosterMember](errs)
	}

	teamID, err := deps.Affiliations.TeamOf(ctx, ident.UserID, tournamentID)
	switch {
	case err != nil:
		errs.add("email", msgTeamLookupFailed, email)
	case teamID != nil:
		errs.add("email", msgAlreadyOnTeam, email)
	}

	if !errs.empty() {
		return reject[rosterMember](errs)
	}
	emails[email] = struct{}{}
	return accept(rosterMember{
		teamKey: key,
		member: models.RosterMember{
			UserID: ident.UserID,
			Role:   role,
			Email:  email,
			Name:   name,
			Row:    row.Row,
		},
	})
}
