package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type ScoreRepository interface {
	// ListRatings возвращает рейтинги только тех пользователей, у которых есть запись.
	ListRatings(ctx context.Context, userIDs []int) (map[int]int, error)
}

type postgresScoreRepository struct {
	db *sql.DB
}

func NewPostgresScoreRepository(db *sql.DB) ScoreRepository {
	return &postgresScoreRepository{db: db}
}

func (r *postgresScoreRepository) ListRatings(ctx context.Context, userIDs []int) (map[int]int, error) {
	ratings := make(map[int]int, len(userIDs))
	if len(userIDs) == 0 {
		return ratings, nil
	}

	ids := make([]int64, len(userIDs))
	for i, id := range userIDs {
		ids[i] = int64(id)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT user_id, rating FROM scores WHERE user_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, rating int
		if err := rows.Scan(&userID, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings[userID] = rating
	}
	return ratings, rows.Err()
}
