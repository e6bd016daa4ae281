package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-registration/models"
)

// Общие ошибки сервисов импорта, используемые в маппинге HTTP.
var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrContentNotFound    = errors.New("tournament content not found")
	ErrImporterNotFound   = errors.New("importing user not found")

	// Ошибки входных данных
	ErrContentTypeMismatch = errors.New("content type does not match the import kind")
	ErrInvalidImportFile   = errors.New("import file is invalid")
	ErrNothingToConfirm    = errors.New("nothing to confirm: the import is empty")
	ErrDuplicateConfirmRow = errors.New("confirm payload repeats a row number")

	// Ошибки подтверждения
	ErrImportStale          = errors.New("import is out of date, preview it again")
	ErrRegistrationConflict = errors.New("user, pair or team is already registered")
	ErrImportPersistFailed  = errors.New("failed to persist import")
)

// RevalidationError is returned by confirm when the submitted rows no longer
// pass validation against the current state. errors.Is(err, ErrImportStale)
// holds for it.
type RevalidationError struct {
	Errors []models.ValidationError
}

func (e *RevalidationError) Error() string {
	return fmt.Sprintf("%s: %d validation errors", ErrImportStale.Error(), len(e.Errors))
}

func (e *RevalidationError) Is(target error) bool {
	return target == ErrImportStale
}
