package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/recognition-portal/internal/ranking"
	"github.com/jmoiron/sqlx"
)

const totalsSinceQuery = `
SELECT to_id AS user_id, SUM(points) AS points
FROM thanks
WHERE status = ? AND approved_at >= ?
GROUP BY to_id
ORDER BY points DESC, to_id ASC`

type RankingRepository struct {
	db sqlx.ExtContext
}

func NewRankingRepository(db sqlx.ExtContext) *RankingRepository {
	return &RankingRepository{db: db}
}

func (r *RankingRepository) TotalsSince(ctx context.Context, cutoff time.Time) ([]ranking.Entry, error) {
	var entries []ranking.Entry
	query := r.db.Rebind(totalsSinceQuery)
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, "approved", cutoff.UTC()); err != nil {
		return nil, fmt.Errorf("sum approved points: %w", err)
	}
	return entries, nil
}
