package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-registration/models"
)

var (
	ErrEntryConflict          = errors.New("entry conflict: user or pair already registered for this content")
	ErrEntryContentInvalid    = errors.New("entry content conflict or invalid")
	ErrEntryTeamInvalid       = errors.New("entry team conflict or invalid")
	ErrEntryMemberUserInvalid = errors.New("entry member user conflict or invalid")
)

type EntryRepository interface {
	// ListByContent возвращает все регистрации раздела вместе с их участниками.
	ListByContent(ctx context.Context, exec SQLExecutor, contentID int) ([]*models.Entry, error)
	Create(ctx context.Context, exec SQLExecutor, entry *models.Entry) error
	CreateMember(ctx context.Context, exec SQLExecutor, member *models.EntryMember) error
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

func (r *postgresEntryRepository) ListByContent(ctx context.Context, exec SQLExecutor, contentID int) ([]*models.Entry, error) {
	executor := executorOr(exec, r.db)
	query := `
		SELECT
			e.id, e.content_id, e.tournament_id, e.team_id, e.pair_key, e.status, e.created_at,
			m.id, m.user_id, m.position, m.rating, m.created_at
		FROM entries e
		LEFT JOIN entry_members m ON m.entry_id = e.id
		WHERE e.content_id = $1
		ORDER BY e.id ASC, m.position ASC`

	rows, err := executor.QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries by content %d: %w", contentID, err)
	}
	defer rows.Close()

	entries := make([]*models.Entry, 0)
	byID := make(map[int]*models.Entry)
	for rows.Next() {
		var e models.Entry
		var memberID, memberUserID, memberPosition, memberRating sql.NullInt64
		var memberCreatedAt sql.NullTime
		if err := rows.Scan(
			&e.ID, &e.ContentID, &e.TournamentID, &e.TeamID, &e.PairKey, &e.Status, &e.CreatedAt,
			&memberID, &memberUserID, &memberPosition, &memberRating, &memberCreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}

		entry, ok := byID[e.ID]
		if !ok {
			entry = &e
			byID[e.ID] = entry
			entries = append(entries, entry)
		}
		if memberID.Valid {
			entry.Members = append(entry.Members, models.EntryMember{
				ID:        int(memberID.Int64),
				EntryID:   entry.ID,
				ContentID: entry.ContentID,
				UserID:    int(memberUserID.Int64),
				Position:  int(memberPosition.Int64),
				Rating:    int(memberRating.Int64),
				CreatedAt: memberCreatedAt.Time,
			})
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}
	return entries, nil
}

func (r *postgresEntryRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.Entry) error {
	executor := executorOr(exec, r.db)
	query := `
		INSERT INTO entries (content_id, tournament_id, team_id, pair_key, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		entry.ContentID,
		entry.TournamentID,
		entry.TeamID,
		entry.PairKey,
		entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch code {
			case pqUniqueViolation:
				if constraint == "entries_content_id_pair_key_key" {
					return ErrEntryConflict
				}
			case pqForeignKeyViolation:
				switch constraint {
				case "entries_content_id_fkey":
					return ErrEntryContentInvalid
				case "entries_team_id_fkey":
					return ErrEntryTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

func (r *postgresEntryRepository) CreateMember(ctx context.Context, exec SQLExecutor, member *models.EntryMember) error {
	executor := executorOr(exec, r.db)
	query := `
		INSERT INTO entry_members (entry_id, content_id, user_id, position, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		member.EntryID,
		member.ContentID,
		member.UserID,
		member.Position,
		member.Rating,
	).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqConstraint(err); ok {
			switch code {
			case pqUniqueViolation:
				if constraint == "entry_members_content_id_user_id_key" {
					return ErrEntryConflict
				}
			case pqForeignKeyViolation:
				if constraint == "entry_members_user_id_fkey" {
					return ErrEntryMemberUserInvalid
				}
			}
		}
		return fmt.Errorf("failed to create entry member for user %d: %w", member.UserID, err)
	}
	return nil
}
