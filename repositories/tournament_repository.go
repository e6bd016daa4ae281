package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-registration/models"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrContentNotFound    = errors.New("tournament content not found")
)

type TournamentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	GetContentByID(ctx context.Context, exec SQLExecutor, contentID int) (*models.TournamentContent, error)
	// LockContent берёт транзакционную advisory-блокировку раздела, сериализуя
	// подтверждения импорта в один и тот же раздел. Требует exec-транзакцию.
	LockContent(ctx context.Context, exec SQLExecutor, contentID int) error
	// LockTournamentTeams сериализует импорт команд в пределах турнира.
	LockTournamentTeams(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const (
	advisoryNamespaceContent = 7101
	advisoryNamespaceTeams   = 7102
)

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, description, organizer_id, start_date, end_date, location, status, created_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.OrganizerID,
		&t.StartDate, &t.EndDate, &t.Location, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetContentByID(ctx context.Context, exec SQLExecutor, contentID int) (*models.TournamentContent, error) {
	executor := executorOr(exec, r.db)
	query := `
		SELECT id, tournament_id, name, content_type, gender_requirement, max_entries
		FROM tournament_contents
		WHERE id = $1`

	c := &models.TournamentContent{}
	var maxEntries sql.NullInt64
	err := executor.QueryRowContext(ctx, query, contentID).Scan(
		&c.ID, &c.TournamentID, &c.Name, &c.ContentType, &c.GenderRequirement, &maxEntries,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament content %d: %w", contentID, err)
	}
	if maxEntries.Valid {
		m := int(maxEntries.Int64)
		c.MaxEntries = &m
	}
	return c, nil
}

func (r *postgresTournamentRepository) LockContent(ctx context.Context, exec SQLExecutor, contentID int) error {
	if exec == nil {
		return errors.New("LockContent requires a transaction executor")
	}
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, advisoryNamespaceContent, contentID); err != nil {
		return fmt.Errorf("failed to lock tournament content %d: %w", contentID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) LockTournamentTeams(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	if exec == nil {
		return errors.New("LockTournamentTeams requires a transaction executor")
	}
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, advisoryNamespaceTeams, tournamentID); err != nil {
		return fmt.Errorf("failed to lock teams of tournament %d: %w", tournamentID, err)
	}
	return nil
}
