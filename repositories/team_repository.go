package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-registration/models"
)

var (
	ErrTeamNotFound          = errors.New("team not found")
	ErrTeamNameConflict      = errors.New("team name conflict in this tournament")
	ErrTeamTournamentInvalid = errors.New("team tournament conflict or invalid")
	ErrTeamMemberConflict    = errors.New("user already belongs to a team in this tournament")
	ErrTeamMemberUserInvalid = errors.New("team member user conflict or invalid")
)

type TeamRepository interface {
	// FindTeamIDByUser возвращает ErrTeamNotFound, если пользователь не состоит
	// ни в одной команде турнира.
	FindTeamIDByUser(ctx context.Context, userID, tournamentID int) (int, error)
	ListNamesByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]string, error)
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	CreateMembers(ctx context.Context, exec SQLExecutor, members []*models.TeamMember) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) FindTeamIDByUser(ctx context.Context, userID, tournamentID int) (int, error) {
	query := `SELECT team_id FROM team_members WHERE user_id = $1 AND tournament_id = $2`
	var teamID int
	err := r.db.QueryRowContext(ctx, query, userID, tournamentID).Scan(&teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTeamNotFound
		}
		return 0, fmt.Errorf("failed to find team of user %d in tournament %d: %w", userID, tournamentID, err)
	}
	return teamID, nil
}

func (r *postgresTeamRepository) ListNamesByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]string, error) {
	executor := executorOr(exec, r.db)
	rows, err := executor.QueryContext(ctx, `SELECT name FROM teams WHERE tournament_id = $1 ORDER BY id`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team names of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan team name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := executorOr(exec, r.db)
	query := `
		INSERT INTO teams (tournament_id, name, description, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		team.TournamentID,
		team.Name,
		team.Description,
		team.CreatedBy,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch code {
			case pqUniqueViolation:
				if constraint == "teams_tournament_id_lower_name_idx" {
					return ErrTeamNameConflict
				}
			case pqForeignKeyViolation:
				if constraint == "teams_tournament_id_fkey" {
					return ErrTeamTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create team %q: %w", team.Name, err)
	}
	return nil
}

// CreateMembers вставляет участников одной подготовленной командой. Требует
// внешнюю транзакцию: частичная вставка недопустима.
func (r *postgresTeamRepository) CreateMembers(ctx context.Context, exec SQLExecutor, members []*models.TeamMember) error {
	if len(members) == 0 {
		return nil
	}
	tx, ok := exec.(*sql.Tx)
	if !ok {
		return errors.New("CreateMembers requires a transaction executor")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO team_members (team_id, tournament_id, user_id, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`)
	if err != nil {
		return fmt.Errorf("CreateMembers failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range members {
		err = stmt.QueryRowContext(ctx, m.TeamID, m.TournamentID, m.UserID, m.Role).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			if code, constraint, ok := pqConstraint(err); ok {
				switch code {
				case pqUniqueViolation:
					if constraint == "team_members_tournament_id_user_id_key" {
						return ErrTeamMemberConflict
					}
				case pqForeignKeyViolation:
					if constraint == "team_members_user_id_fkey" {
						return ErrTeamMemberUserInvalid
					}
				}
			}
			return fmt.Errorf("CreateMembers failed for team_id %d, user_id %d: %w", m.TeamID, m.UserID, err)
		}
	}
	return nil
}
