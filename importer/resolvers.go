// Package importer содержит чистый движок валидации массового импорта
// регистраций и составов команд. Все обращения к хранилищам идут через
// интерфейсы, переданные вызывающим кодом.
package importer

import (
	"context"

	"github.com/Dosada05/tournament-registration/models"
)

// IdentityResolver looks users up. Implementations return (nil, nil) when the
// user does not exist and reserve errors for lookup failures.
type IdentityResolver interface {
	ByEmail(ctx context.Context, email string) (*models.Identity, error)
}

// AffiliationResolver returns the id of the user's team within a tournament,
// or nil when the user has no team there.
type AffiliationResolver interface {
	TeamOf(ctx context.Context, userID, tournamentID int) (*int, error)
}

// RatingResolver returns current ratings keyed by user id. Users without a
// rating record are absent from the map.
type RatingResolver interface {
	RatingsOf(ctx context.Context, userIDs []int) (map[int]int, error)
}

// Resolvers groups the lookups the validation engine needs.
type Resolvers struct {
	Identities   IdentityResolver
	Affiliations AffiliationResolver
}
