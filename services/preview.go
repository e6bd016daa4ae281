package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-registration/models"
	"github.com/Dosada05/tournament-registration/spreadsheet"
	"github.com/Dosada05/tournament-registration/storage"
)

// Notifier получает события об успешно подтверждённых импортах.
type Notifier interface {
	NotifyTournament(tournamentID int, event string, payload interface{})
}

const reportKeyPrefix = "import-reports"

func newImportID() string {
	return uuid.NewString()
}

// uploadErrorReport сохраняет xlsx с ошибками и возвращает публичную ссылку.
// Сбой выгрузки не ломает предпросмотр: он только логируется.
func uploadErrorReport(ctx context.Context, uploader storage.FileUploader, logger *slog.Logger, importID string, errs []models.ValidationError) *string {
	if uploader == nil || len(errs) == 0 {
		return nil
	}
	data, err := spreadsheet.BuildErrorReport(errs)
	if err != nil {
		logger.WarnContext(ctx, "failed to build error report", slog.String("import_id", importID), slog.Any("error", err))
		return nil
	}
	key := fmt.Sprintf("%s/%s/errors.xlsx", reportKeyPrefix, importID)
	res, err := uploader.Upload(ctx, key, spreadsheet.ReportContentType, bytes.NewReader(data))
	if err != nil {
		logger.WarnContext(ctx, "failed to upload error report", slog.String("import_id", importID), slog.Any("error", err))
		return nil
	}
	if res.Location == "" {
		return nil
	}
	return &res.Location
}

// rowsWithErrors counts distinct rows mentioned by errs; file-level errors
// (row 0) are not rows.
func rowsWithErrors(errs []models.ValidationError) int {
	type rowKey struct {
		sheet string
		row   int
	}
	seen := make(map[rowKey]struct{}, len(errs))
	for _, e := range errs {
		if e.Row > 0 {
			seen[rowKey{e.Sheet, e.Row}] = struct{}{}
		}
	}
	return len(seen)
}

func nonNilErrors(errs []models.ValidationError) []models.ValidationError {
	if errs == nil {
		return []models.ValidationError{}
	}
	return errs
}
