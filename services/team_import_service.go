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

// TeamImportService импортирует команды турнира вместе с составами.
type TeamImportService struct {
	tournaments repositories.TournamentRepository
	teams       repositories.TeamRepository
	users       repositories.UserRepository
	tx          repositories.TxRunner
	resolvers   importer.Resolvers
	uploader    storage.FileUploader
	notifier    Notifier
	metrics     *metrics.ImportMetrics
	logger      *slog.Logger
}

type TeamImportServiceDeps struct {
	Tournaments repositories.TournamentRepository
	Teams       repositories.TeamRepository
	Users       repositories.UserRepository
	Tx          repositories.TxRunner
	Resolvers   importer.Resolvers
	Uploader    storage.FileUploader
	Notifier    Notifier
	Metrics     *metrics.ImportMetrics
	Logger      *slog.Logger
}

func NewTeamImportService(deps TeamImportServiceDeps) *TeamImportService {
	return &TeamImportService{
		tournaments: deps.Tournaments,
		teams:       deps.Teams,
		users:       deps.Users,
		tx:          deps.Tx,
		resolvers:   deps.Resolvers,
		uploader:    deps.Uploader,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

func (s *TeamImportService) checkParties(ctx context.Context, tournamentID, importerID int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := s.tournaments.GetByID(gctx, tournamentID); err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.users.GetByID(gctx, importerID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrImporterNotFound
			}
			return fmt.Errorf("failed to load importer %d: %w", importerID, err)
		}
		return nil
	})
	return g.Wait()
}

// PreviewTeams validates the teams sheet and the members sheet together.
func (s *TeamImportService) PreviewTeams(ctx context.Context, tournamentID int, teamRows, memberRows []models.RawRow, importerID int) (*models.PreviewResult[models.RosterTeamBatch], error) {
	start := time.Now()
	teams, err := importer.ParseTeamRows(teamRows)
	if err != nil {
		s.metrics.IncOperation(kindTeams, "preview", "invalid_file")
		return nil, fmt.Errorf("%w: %s sheet: %w", ErrInvalidImportFile, importer.SheetTeams, err)
	}
	members, err := importer.ParseMemberRows(memberRows)
	if err != nil {
		s.metrics.IncOperation(kindTeams, "preview", "invalid_file")
		return nil, fmt.Errorf("%w: %s sheet: %w", ErrInvalidImportFile, importer.SheetMembers, err)
	}

	if err := s.checkParties(ctx, tournamentID, importerID); err != nil {
		return nil, err
	}
	existing, err := s.teams.ListNamesByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of tournament %d: %w", tournamentID, err)
	}

	batches, verrs := importer.ValidateRosters(ctx, importer.RosterInput{
		TournamentID:      tournamentID,
		ImporterID:        importerID,
		Teams:             teams,
		Members:           members,
		ExistingTeamNames: existing,
	}, s.resolvers)

	total := len(teams) + len(members)
	failed := rowsWithErrors(verrs)
	valid := acceptedRows(batches)
	preview := &models.PreviewResult[models.RosterTeamBatch]{
		Valid:    len(verrs) == 0,
		ImportID: newImportID(),
		Items:    batches,
		Errors:   nonNilErrors(verrs),
		Summary: models.ImportSummary{
			TotalRows:      total,
			ValidRows:      valid,
			RowsWithErrors: failed,
		},
	}
	preview.ReportURL = uploadErrorReport(ctx, s.uploader, s.logger, preview.ImportID, verrs)

	outcome := "valid"
	if !preview.Valid {
		outcome = "invalid"
	}
	s.metrics.IncOperation(kindTeams, "preview", outcome)
	s.metrics.ObserveRows(kindTeams, valid, total-valid)
	s.metrics.ObserveDuration(kindTeams, "preview", time.Since(start))
	s.logger.InfoContext(ctx, "team import preview",
		slog.String("import_id", preview.ImportID),
		slog.Int("tournament_id", tournamentID),
		slog.Int("importer_id", importerID),
		slog.Int("teams", len(batches)),
		slog.Int("errors", len(verrs)),
	)
	return preview, nil
}

// ConfirmTeams re-checks the batches under the tournament lock and creates
// every team with its members in one transaction.
func (s *TeamImportService) ConfirmTeams(ctx context.Context, tournamentID, importerID int, batches []models.RosterTeamBatch) (*models.TeamConfirmResult, error) {
	if len(batches) == 0 {
		return nil, ErrNothingToConfirm
	}
	start := time.Now()
	if err := s.checkParties(ctx, tournamentID, importerID); err != nil {
		return nil, err
	}

	result := &models.TeamConfirmResult{TeamIDs: make([]int, 0, len(batches))}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournaments.LockTournamentTeams(ctx, exec, tournamentID); err != nil {
			return err
		}
		existing, err := s.teams.ListNamesByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		teams, members := rowsFromBatches(batches)
		accepted, verrs := importer.ValidateRosters(ctx, importer.RosterInput{
			TournamentID:      tournamentID,
			ImporterID:        importerID,
			Teams:             teams,
			Members:           members,
			ExistingTeamNames: existing,
		}, s.resolvers)
		verrs = append(verrs, changedMembers(batches, accepted)...)
		if len(verrs) > 0 {
			return &RevalidationError{Errors: verrs}
		}

		for _, batch := range accepted {
			team := &models.Team{
				TournamentID: tournamentID,
				Name:         batch.Name,
				Description:  batch.Description,
				CreatedBy:    importerID,
			}
			if err := s.teams.Create(ctx, exec, team); err != nil {
				return fmt.Errorf("team %q: %w", batch.Name, err)
			}
			rows := make([]*models.TeamMember, 0, len(batch.Members))
			for _, m := range batch.Members {
				rows = append(rows, &models.TeamMember{
					TeamID:       team.ID,
					TournamentID: tournamentID,
					UserID:       m.UserID,
					Role:         m.Role,
				})
			}
			if err := s.teams.CreateMembers(ctx, exec, rows); err != nil {
				return fmt.Errorf("team %q: %w", batch.Name, err)
			}
			result.TeamIDs = append(result.TeamIDs, team.ID)
			result.CreatedMembers += len(rows)
		}
		return nil
	})
	if err != nil {
		return nil, s.confirmFailed(ctx, tournamentID, err)
	}

	result.CreatedTeams = len(result.TeamIDs)
	s.metrics.IncOperation(kindTeams, "confirm", "ok")
	s.metrics.AddCreated(kindTeams, result.CreatedTeams)
	s.metrics.ObserveDuration(kindTeams, "confirm", time.Since(start))
	s.logger.InfoContext(ctx, "team import confirmed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("importer_id", importerID),
		slog.Int("teams", result.CreatedTeams),
		slog.Int("members", result.CreatedMembers),
	)
	if s.notifier != nil {
		s.notifier.NotifyTournament(tournamentID, realtime.EventTeamsImported, map[string]interface{}{
			"tournament_id":   tournamentID,
			"created_teams":   result.CreatedTeams,
			"created_members": result.CreatedMembers,
			"team_ids":        result.TeamIDs,
		})
	}
	return result, nil
}

func (s *TeamImportService) confirmFailed(ctx context.Context, tournamentID int, err error) error {
	var revalidation *RevalidationError
	switch {
	case errors.As(err, &revalidation):
		s.metrics.IncOperation(kindTeams, "confirm", "stale")
		return revalidation
	case errors.Is(err, repositories.ErrTeamNameConflict), errors.Is(err, repositories.ErrTeamMemberConflict):
		s.metrics.IncOperation(kindTeams, "confirm", "conflict")
		s.logger.WarnContext(ctx, "team import hit a registration conflict", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrImportPersistFailed, ErrRegistrationConflict)
	default:
		s.metrics.IncOperation(kindTeams, "confirm", "failed")
		s.logger.ErrorContext(ctx, "team import failed, transaction rolled back", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrImportPersistFailed, err)
	}
}

// rowsFromBatches разворачивает принятые команды обратно в строки листов,
// чтобы прогнать их через тот же валидатор.
// acceptedRows считает строки обоих листов, попавшие в принятые команды.
// Строки участников отклонённой команды валидными не считаются.
func acceptedRows(batches []models.RosterTeamBatch) int {
	n := 0
	for _, b := range batches {
		n += 1 + len(b.Members)
	}
	return n
}

func rowsFromBatches(batches []models.RosterTeamBatch) ([]models.ParsedTeamRow, []models.ParsedMemberRow) {
	teams := make([]models.ParsedTeamRow, 0, len(batches))
	var members []models.ParsedMemberRow
	for _, b := range batches {
		teams = append(teams, models.ParsedTeamRow{Row: b.Row, Name: b.Name, Description: b.Description})
		for _, m := range b.Members {
			members = append(members, models.ParsedMemberRow{
				Row:      m.Row,
				TeamName: b.Name,
				Name:     m.Name,
				Role:     string(m.Role),
				Email:    m.Email,
			})
		}
	}
	return teams, members
}

func changedMembers(submitted, accepted []models.RosterTeamBatch) []models.ValidationError {
	byEmail := make(map[string]int)
	for _, b := range submitted {
		for _, m := range b.Members {
			byEmail[importer.NormalizeEmail(m.Email)] = m.UserID
		}
	}
	var verrs []models.ValidationError
	for _, b := range accepted {
		for _, m := range b.Members {
			if id, ok := byEmail[m.Email]; ok && id != m.UserID {
				verrs = append(verrs, models.ValidationError{
					Row:     m.Row,
					Field:   "email",
					Message: msgUserChanged,
					Value:   m.Email,
					Sheet:   importer.SheetMembers,
				})
			}
		}
	}
	return verrs
}
