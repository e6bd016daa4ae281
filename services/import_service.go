package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-registration/importer"
	"github.com/Dosada05/tournament-registration/metrics"
	"github.com/Dosada05/tournament-registration/models"
	"github.com/Dosada05/tournament-registration/realtime"
	"github.com/Dosada05/tournament-registration/repositories"
	"github.com/Dosada05/tournament-registration/storage"
)

const (
	kindSingle = "single"
	kindDouble = "double"
	kindTeams  = "teams"
)

const msgUserChanged = "email now belongs to a different user than in the preview"

// ImportService - предпросмотр и подтверждение массовой регистрации в раздел
// турнира (одиночные и парные заявки).
type ImportService struct {
	tournaments   repositories.TournamentRepository
	entries       repositories.EntryRepository
	tx            repositories.TxRunner
	resolvers     importer.Resolvers
	ratings       importer.RatingResolver
	uploader      storage.FileUploader
	notifier      Notifier
	metrics       *metrics.ImportMetrics
	logger        *slog.Logger
	defaultRating int
}

// ImportServiceDeps: uploader, notifier и metrics необязательны.
type ImportServiceDeps struct {
	Tournaments   repositories.TournamentRepository
	Entries       repositories.EntryRepository
	Tx            repositories.TxRunner
	Resolvers     importer.Resolvers
	Ratings       importer.RatingResolver
	Uploader      storage.FileUploader
	Notifier      Notifier
	Metrics       *metrics.ImportMetrics
	Logger        *slog.Logger
	DefaultRating int
}

func NewImportService(deps ImportServiceDeps) *ImportService {
	rating := deps.DefaultRating
	if rating <= 0 {
		rating = models.DefaultRating
	}
	return &ImportService{
		tournaments:   deps.Tournaments,
		entries:       deps.Entries,
		tx:            deps.Tx,
		resolvers:     deps.Resolvers,
		ratings:       deps.Ratings,
		uploader:      deps.Uploader,
		notifier:      deps.Notifier,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		defaultRating: rating,
	}
}

// snapshot загружает раздел и его регистрации параллельно.
func (s *ImportService) snapshot(ctx context.Context, contentID int, want models.ContentType) (*models.TournamentContent, *importer.DedupIndex, error) {
	var (
		content *models.TournamentContent
		entries []*models.Entry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		content, err = s.tournaments.GetContentByID(gctx, nil, contentID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.entries.ListByContent(gctx, nil, contentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, s.mapLookupError(err, contentID)
	}
	if content.ContentType != want {
		return nil, nil, fmt.Errorf("%w: content %d is %s", ErrContentTypeMismatch, contentID, content.ContentType)
	}
	return content, importer.BuildDedupIndex(entries), nil
}

func (s *ImportService) mapLookupError(err error, contentID int) error {
	if errors.Is(err, repositories.ErrContentNotFound) {
		return ErrContentNotFound
	}
	return fmt.Errorf("failed to load content %d: %w", contentID, err)
}

// PreviewSingle validates single entries without writing anything.
func (s *ImportService) PreviewSingle(ctx context.Context, contentID int, rows []models.RawRow) (*models.PreviewResult[models.ValidatedSingleEntry], error) {
	start := time.Now()
	parsed, err := importer.ParseSingleRows(rows)
	if err != nil {
		s.metrics.IncOperation(kindSingle, "preview", "invalid_file")
		return nil, fmt.Errorf("%w: %w", ErrInvalidImportFile, err)
	}

	content, index, err := s.snapshot(ctx, contentID, models.ContentSingle)
	if err != nil {
		return nil, err
	}

	res, err := importer.ValidateSingle(ctx, importer.SingleInput{Content: content, Rows: parsed, Index: index}, s.resolvers)
	if err != nil {
		return nil, err
	}

	preview := previewFrom(res)
	preview.ReportURL = s.finishPreview(ctx, kindSingle, contentID, preview.ImportID, res.Errors, len(res.Items), start)
	return preview, nil
}

// PreviewDouble validates paired entries without writing anything.
func (s *ImportService) PreviewDouble(ctx context.Context, contentID int, rows []models.RawRow) (*models.PreviewResult[models.ValidatedDoubleEntry], error) {
	start := time.Now()
	parsed, err := importer.ParseDoubleRows(rows)
	if err != nil {
		s.metrics.IncOperation(kindDouble, "preview", "invalid_file")
		return nil, fmt.Errorf("%w: %w", ErrInvalidImportFile, err)
	}

	content, index, err := s.snapshot(ctx, contentID, models.ContentDouble)
	if err != nil {
		return nil, err
	}

	res, err := importer.ValidateDouble(ctx, importer.DoubleInput{Content: content, Rows: parsed, Index: index}, s.resolvers)
	if err != nil {
		return nil, err
	}

	preview := previewFrom(res)
	preview.ReportURL = s.finishPreview(ctx, kindDouble, contentID, preview.ImportID, res.Errors, len(res.Items), start)
	return preview, nil
}

func previewFrom[T any](res *importer.Result[T]) *models.PreviewResult[T] {
	capacity := res.Capacity
	return &models.PreviewResult[T]{
		Valid:    res.Valid(),
		ImportID: newImportID(),
		Items:    res.Items,
		Errors:   nonNilErrors(res.Errors),
		Summary: models.ImportSummary{
			TotalRows:      res.TotalRows,
			ValidRows:      len(res.Items),
			RowsWithErrors: res.RowsWithErrors,
			Capacity:       &capacity,
		},
	}
}

func (s *ImportService) finishPreview(ctx context.Context, kind string, contentID int, importID string, errs []models.ValidationError, accepted int, start time.Time) *string {
	reportURL := uploadErrorReport(ctx, s.uploader, s.logger, importID, errs)

	outcome := "valid"
	if len(errs) > 0 {
		outcome = "invalid"
	}
	s.metrics.IncOperation(kind, "preview", outcome)
	s.metrics.ObserveRows(kind, accepted, rowsWithErrors(errs))
	s.metrics.ObserveDuration(kind, "preview", time.Since(start))

	s.logger.InfoContext(ctx, "import preview",
		slog.String("import_id", importID),
		slog.String("kind", kind),
		slog.Int("content_id", contentID),
		slog.Int("accepted", accepted),
		slog.Int("errors", len(errs)),
	)
	return reportURL
}

// ConfirmSingle re-validates the submitted entries against the current state
// and persists all of them in one transaction, or none.
func (s *ImportService) ConfirmSingle(ctx context.Context, contentID int, entries []models.ValidatedSingleEntry) (*models.ConfirmResult, error) {
	if len(entries) == 0 {
		return nil, ErrNothingToConfirm
	}
	if err := checkDistinctRows(entries, func(e models.ValidatedSingleEntry) int { return e.Row }); err != nil {
		return nil, err
	}
	start := time.Now()

	userIDs := make([]int, 0, len(entries))
	for _, e := range entries {
		userIDs = append(userIDs, e.UserID)
	}
	ratings, err := s.ratings.RatingsOf(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	result := &models.ConfirmResult{CreatedIDs: make([]int, 0, len(entries))}
	var tournamentID int
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		content, index, err := s.lockedSnapshot(ctx, exec, contentID, models.ContentSingle)
		if err != nil {
			return err
		}
		tournamentID = content.TournamentID

		parsed := make([]models.ParsedSingleEntry, 0, len(entries))
		for _, e := range entries {
			parsed = append(parsed, models.ParsedSingleEntry{Row: e.Row, Name: e.Name, Email: e.Email})
		}
		res, err := importer.ValidateSingle(ctx, importer.SingleInput{Content: content, Rows: parsed, Index: index}, s.resolvers)
		if err != nil {
			return err
		}
		verrs := res.Errors
		for _, item := range res.Items {
			if submitted := findSingle(entries, item.Row); submitted != nil && submitted.UserID != item.UserID {
				verrs = append(verrs, models.ValidationError{Row: item.Row, Field: "email", Message: msgUserChanged, Value: item.Email})
			}
		}
		if len(verrs) > 0 {
			return &RevalidationError{Errors: verrs}
		}

		for _, item := range res.Items {
			entry := &models.Entry{
				ContentID:    contentID,
				TournamentID: content.TournamentID,
				TeamID:       item.TeamID,
				Status:       models.EntryStatusPending,
			}
			if err := s.entries.Create(ctx, exec, entry); err != nil {
				return fmt.Errorf("row %d: %w", item.Row, err)
			}
			member := &models.EntryMember{
				EntryID:   entry.ID,
				ContentID: contentID,
				UserID:    item.UserID,
				Position:  1,
				Rating:    s.ratingOf(ratings, item.UserID),
			}
			if err := s.entries.CreateMember(ctx, exec, member); err != nil {
				return fmt.Errorf("row %d: %w", item.Row, err)
			}
			result.CreatedIDs = append(result.CreatedIDs, entry.ID)
		}
		return nil
	})
	if err != nil {
		return nil, s.confirmFailed(ctx, kindSingle, contentID, err)
	}

	result.CreatedCount = len(result.CreatedIDs)
	s.confirmed(ctx, kindSingle, contentID, tournamentID, result, start)
	return result, nil
}

// ConfirmDouble is ConfirmSingle for paired entries: one entry with two
// members per pair.
func (s *ImportService) ConfirmDouble(ctx context.Context, contentID int, entries []models.ValidatedDoubleEntry) (*models.ConfirmResult, error) {
	if len(entries) == 0 {
		return nil, ErrNothingToConfirm
	}
	if err := checkDistinctRows(entries, func(e models.ValidatedDoubleEntry) int { return e.Row }); err != nil {
		return nil, err
	}
	start := time.Now()

	userIDs := make([]int, 0, len(entries)*2)
	for _, e := range entries {
		userIDs = append(userIDs, e.Player1UserID, e.Player2UserID)
	}
	ratings, err := s.ratings.RatingsOf(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	result := &models.ConfirmResult{CreatedIDs: make([]int, 0, len(entries))}
	var tournamentID int
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		content, index, err := s.lockedSnapshot(ctx, exec, contentID, models.ContentDouble)
		if err != nil {
			return err
		}
		tournamentID = content.TournamentID

		parsed := make([]models.ParsedDoubleEntry, 0, len(entries))
		for _, e := range entries {
			parsed = append(parsed, models.ParsedDoubleEntry{
				Row:          e.Row,
				Player1Name:  e.Player1Name,
				Player1Email: e.Player1Email,
				Player2Name:  e.Player2Name,
				Player2Email: e.Player2Email,
			})
		}
		res, err := importer.ValidateDouble(ctx, importer.DoubleInput{Content: content, Rows: parsed, Index: index}, s.resolvers)
		if err != nil {
			return err
		}
		verrs := res.Errors
		for _, item := range res.Items {
			submitted := findDouble(entries, item.Row)
			if submitted == nil {
				continue
			}
			if submitted.Player1UserID != item.Player1UserID {
				verrs = append(verrs, models.ValidationError{Row: item.Row, Field: "player1Email", Message: msgUserChanged, Value: item.Player1Email})
			}
			if submitted.Player2UserID != item.Player2UserID {
				verrs = append(verrs, models.ValidationError{Row: item.Row, Field: "player2Email", Message: msgUserChanged, Value: item.Player2Email})
			}
		}
		if len(verrs) > 0 {
			return &RevalidationError{Errors: verrs}
		}

		for _, item := range res.Items {
			key := importer.PairKey(item.Player1UserID, item.Player2UserID)
			entry := &models.Entry{
				ContentID:    contentID,
				TournamentID: content.TournamentID,
				TeamID:       item.Player1TeamID,
				PairKey:      &key,
				Status:       models.EntryStatusPending,
			}
			if err := s.entries.Create(ctx, exec, entry); err != nil {
				return fmt.Errorf("row %d: %w", item.Row, err)
			}
			for pos, userID := range []int{item.Player1UserID, item.Player2UserID} {
				member := &models.EntryMember{
					EntryID:   entry.ID,
					ContentID: contentID,
					UserID:    userID,
					Position:  pos + 1,
					Rating:    s.ratingOf(ratings, userID),
				}
				if err := s.entries.CreateMember(ctx, exec, member); err != nil {
					return fmt.Errorf("row %d: %w", item.Row, err)
				}
			}
			result.CreatedIDs = append(result.CreatedIDs, entry.ID)
		}
		return nil
	})
	if err != nil {
		return nil, s.confirmFailed(ctx, kindDouble, contentID, err)
	}

	result.CreatedCount = len(result.CreatedIDs)
	s.confirmed(ctx, kindDouble, contentID, tournamentID, result, start)
	return result, nil
}

// lockedSnapshot сериализует подтверждения в один раздел и перечитывает его
// состояние уже под блокировкой.
func (s *ImportService) lockedSnapshot(ctx context.Context, exec repositories.SQLExecutor, contentID int, want models.ContentType) (*models.TournamentContent, *importer.DedupIndex, error) {
	if err := s.tournaments.LockContent(ctx, exec, contentID); err != nil {
		return nil, nil, err
	}
	content, err := s.tournaments.GetContentByID(ctx, exec, contentID)
	if err != nil {
		return nil, nil, err
	}
	if content.ContentType != want {
		return nil, nil, fmt.Errorf("%w: content %d is %s", ErrContentTypeMismatch, contentID, content.ContentType)
	}
	entries, err := s.entries.ListByContent(ctx, exec, contentID)
	if err != nil {
		return nil, nil, err
	}
	return content, importer.BuildDedupIndex(entries), nil
}

func (s *ImportService) ratingOf(ratings map[int]int, userID int) int {
	if r, ok := ratings[userID]; ok {
		return r
	}
	return s.defaultRating
}

// confirmFailed приводит ошибку транзакции к ошибкам сервиса. Частичные id не
// возвращаются никогда.
func (s *ImportService) confirmFailed(ctx context.Context, kind string, contentID int, err error) error {
	var revalidation *RevalidationError
	switch {
	case errors.As(err, &revalidation):
		s.metrics.IncOperation(kind, "confirm", "stale")
		s.logger.InfoContext(ctx, "import confirm rejected by revalidation",
			slog.String("kind", kind), slog.Int("content_id", contentID), slog.Int("errors", len(revalidation.Errors)))
		return revalidation
	case errors.Is(err, repositories.ErrContentNotFound):
		s.metrics.IncOperation(kind, "confirm", "not_found")
		return ErrContentNotFound
	case errors.Is(err, ErrContentTypeMismatch):
		s.metrics.IncOperation(kind, "confirm", "invalid")
		return err
	case errors.Is(err, repositories.ErrEntryConflict), errors.Is(err, repositories.ErrTeamNameConflict), errors.Is(err, repositories.ErrTeamMemberConflict):
		s.metrics.IncOperation(kind, "confirm", "conflict")
		s.logger.WarnContext(ctx, "import confirm hit a registration conflict",
			slog.String("kind", kind), slog.Int("content_id", contentID), slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrImportPersistFailed, ErrRegistrationConflict)
	default:
		s.metrics.IncOperation(kind, "confirm", "failed")
		s.logger.ErrorContext(ctx, "import confirm failed, transaction rolled back",
			slog.String("kind", kind), slog.Int("content_id", contentID), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrImportPersistFailed, err)
	}
}

func (s *ImportService) confirmed(ctx context.Context, kind string, contentID, tournamentID int, result *models.ConfirmResult, start time.Time) {
	s.metrics.IncOperation(kind, "confirm", "ok")
	s.metrics.AddCreated(kind, result.CreatedCount)
	s.metrics.ObserveDuration(kind, "confirm", time.Since(start))
	s.logger.InfoContext(ctx, "import confirmed",
		slog.String("kind", kind),
		slog.Int("content_id", contentID),
		slog.Int("created", result.CreatedCount),
	)
	if s.notifier != nil {
		s.notifier.NotifyTournament(tournamentID, realtime.EventEntriesImported, map[string]interface{}{
			"content_id":    contentID,
			"kind":          kind,
			"created_count": result.CreatedCount,
			"entry_ids":     result.CreatedIDs,
		})
	}
}

// checkDistinctRows: подтверждённые строки сверяются с повторной проверкой по
// номеру строки, поэтому номера в запросе должны быть уникальны.
func checkDistinctRows[T any](entries []T, rowOf func(T) int) error {
	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		row := rowOf(e)
		if _, dup := seen[row]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateConfirmRow, row)
		}
		seen[row] = struct{}{}
	}
	return nil
}

func findSingle(entries []models.ValidatedSingleEntry, row int) *models.ValidatedSingleEntry {
	for i := range entries {
		if entries[i].Row == row {
			return &entries[i]
		}
	}
	return nil
}

func findDouble(entries []models.ValidatedDoubleEntry, row int) *models.ValidatedDoubleEntry {
	for i := range entries {
		if entries[i].Row == row {
			return &entries[i]
		}
	}
	return nil
}
