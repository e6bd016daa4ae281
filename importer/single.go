package importer

import (
	"context"
	"strings"

	"github.com/Dosada05/tournament-registration/models"
)

// SingleInput - входные данные для проверки одиночных заявок.
type SingleInput struct {
	Content *models.TournamentContent
	Rows    []models.ParsedSingleEntry
	Index   *DedupIndex
}

type singleBatch struct {
	emails map[string]struct{}
}

// ValidateSingle checks single entries row by row. Row problems are returned as
// data; the error is reserved for structural failures.
func ValidateSingle(ctx context.Context, in SingleInput, deps Resolvers) (*Result[models.ValidatedSingleEntry], error) {
	if in.Content == nil {
		return nil, ErrContentRequired
	}
	if in.Content.ContentType != models.ContentSingle {
		return nil, ErrContentTypeMismatch
	}

	res := &Result[models.ValidatedSingleEntry]{
		Items:     make([]models.ValidatedSingleEntry, 0, len(in.Rows)),
		Errors:    make([]models.ValidationError, 0),
		TotalRows: len(in.Rows),
	}

	capacity, capErr := CheckCapacity(in.Content, in.Index.Occupancy(), len(in.Rows))
	res.Capacity = capacity
	if capErr != nil {
		res.Errors = append(res.Errors, *capErr)
		return res, nil
	}

	batch := &singleBatch{emails: make(map[string]struct{})}
	for _, row := range in.Rows {
		res.add(validateSingleRow(ctx, in.Content, row, in.Index, batch, deps))
	}
	return res, nil
}

func validateSingleRow(
	ctx context.Context,
	content *models.TournamentContent,
	row models.ParsedSingleEntry,
	index *DedupIndex,
	batch *singleBatch,
	deps Resolvers,
) RowResult[models.ValidatedSingleEntry] {
	errs := &rowErrors{row: row.Row}
	name := strings.TrimSpace(row.Name)
	email := NormalizeEmail(row.Email)

	if name == "" {
		errs.add("name", msgNameRequired, "")
	}
	if !IsValidEmail(email) {
		errs.add("email", msgEmailInvalid, row.Email)
		return reject[models.ValidatedSingleEntry](errs)
	}
	if _, seen := batch.emails[email]; seen {
		errs.add("email", msgDuplicateEmail, email)
		return reject[models.ValidatedSingleEntry](errs)
	}

	ident, err := deps.Identities.ByEmail(ctx, email)
	if err != nil {
		errs.add("email", msgUserLookupFailed, email)
		return reject[models.ValidatedSingleEntry](errs)
	}
	if ident == nil {
		errs.add("email", msgUserNotFound, email)
		return reject[models.ValidatedSingleEntry](errs)
	}

	if index.HasUser(ident.UserID) {
		errs.add("email", msgAlreadyRegistered, email)
		// слот email остаётся занятым, чтобы не плодить повторные жалобы
		batch.emails[email] = struct{}{}
		return reject[models.ValidatedSingleEntry](errs)
	}

	checkSingleGender(content, ident, errs)

	teamID, err := deps.Affiliations.TeamOf(ctx, ident.UserID, content.TournamentID)
	if err != nil {
		errs.add("team", msgTeamLookupFailed, "")
	}

	if !errs.empty() {
		return reject[models.ValidatedSingleEntry](errs)
	}

	batch.emails[email] = struct{}{}
	return accept(models.ValidatedSingleEntry{
		Name:   name,
		UserID: ident.UserID,
		Email:  email,
		TeamID: teamID,
		Row:    row.Row,
	})
}
