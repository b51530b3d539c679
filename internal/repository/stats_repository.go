package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/chamado-service/internal/domain"
)

// StatsRepository computes grouped ticket counts over a creation-date window.
type StatsRepository interface {
	Stats(ctx context.Context, window domain.DateRange) (*domain.TicketStats, error)
}

type statsRepository struct {
	pool  *pgxpool.Pool
	retry Retrier
}

// NewStatsRepository builds the postgres stats repository.
func NewStatsRepository(pool *pgxpool.Pool, retry Retrier) StatsRepository {
	return &statsRepository{pool: pool, retry: retry}
}

func (r *statsRepository) Stats(ctx context.Context, window domain.DateRange) (*domain.TicketStats, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if window.From != nil {
		args = append(args, domain.StartOfDay(*window.From))
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if end := window.EndExclusive(); end != nil {
		args = append(args, *end)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := `
        SELECT status, destination_sector, problem_type,
               to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
               CASE WHEN status='RESOLVED' THEN assignee_id END,
               CASE WHEN status='RESOLVED' THEN assignee_name END,
               COUNT(*)
        FROM tickets
        WHERE ` + strings.Join(clauses, " AND ") + `
        GROUP BY 1, 2, 3, 4, 5, 6`

	var stats *domain.TicketStats
	err := r.retry.Read(ctx, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		stats = domain.NewTicketStats()
		for rows.Next() {
			var (
				group       domain.StatsGroup
				status      string
				problemType string
				count       int
			)
			if err := rows.Scan(
				&status,
				&group.Sector,
				&problemType,
				&group.Day,
				&group.AssigneeID,
				&group.AssigneeName,
				&count,
			); err != nil {
				return err
			}
			group.Status = domain.TicketStatus(status)
			group.ProblemType = domain.ProblemType(problemType)
			stats.AddGroup(group, count)
		}
		return rows.Err()
	})
	return stats, err
}
