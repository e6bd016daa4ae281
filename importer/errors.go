package importer

import "errors"

// Структурные ошибки: прерывают весь вызов до обработки строк.
var (
	ErrContentRequired     = errors.New("registration content is required")
	ErrContentTypeMismatch = errors.New("content type does not match the import kind")
	ErrEmptySheet          = errors.New("sheet is empty")
	ErrNoDataRows          = errors.New("sheet has no data rows")
	ErrMissingColumn       = errors.New("required column is missing")
)

const (
	msgNameRequired         = "name is required"
	msgEmailInvalid         = "email is not a valid email address"
	msgDuplicateEmail       = "duplicate email in this import"
	msgUserNotFound         = "user not found"
	msgUserLookupFailed     = "failed to look up user"
	msgTeamLookupFailed     = "failed to look up team"
	msgAlreadyRegistered    = "user is already registered for this content"
	msgGenderNotSet         = "gender is not set for this user"
	msgSamePlayer           = "player1 and player2 must be different people"
	msgPairRegistered       = "this pair is already registered for this content"
	msgPairDuplicate        = "duplicate pair in this import"
	msgPlayerInAnotherEntry = "player is already included in another entry of this import"
	msgSameTeam             = "both players must be in the same team"
	msgNoTeam               = "does not belong to any team in this tournament"
)
