package services

import (
	"context"
	"errors"

	"github.com/Dosada05/tournament-registration/importer"
	"github.com/Dosada05/tournament-registration/models"
	"github.com/Dosada05/tournament-registration/repositories"
)

// userDirectory adapts the user repository to importer.IdentityResolver.
type userDirectory struct {
	users repositories.UserRepository
}

func (d userDirectory) ByEmail(ctx context.Context, email string) (*models.Identity, error) {
	user, err := d.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.Identity{
		UserID: user.ID,
		Email:  importer.NormalizeEmail(user.Email),
		Name:   user.FullName(),
		Gender: user.Gender,
	}, nil
}

type teamAffiliations struct {
	teams repositories.TeamRepository
}

func (a teamAffiliations) TeamOf(ctx context.Context, userID, tournamentID int) (*int, error) {
	teamID, err := a.teams.FindTeamIDByUser(ctx, userID, tournamentID)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &teamID, nil
}

type scoreRatings struct {
	scores repositories.ScoreRepository
}

func (r scoreRatings) RatingsOf(ctx context.Context, userIDs []int) (map[int]int, error) {
	return r.scores.ListRatings(ctx, userIDs)
}

// NewResolvers wires repositories into the lookups of the validation engine.
func NewResolvers(users repositories.UserRepository, teams repositories.TeamRepository) importer.Resolvers {
	return importer.Resolvers{
		Identities:   userDirectory{users: users},
		Affiliations: teamAffiliations{teams: teams},
	}
}

func NewRatingResolver(scores repositories.ScoreRepository) importer.RatingResolver {
	return scoreRatings{scores: scores}
}
