package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/chamado-service/internal/domain"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// HistoryRepository stores the append-only follow-up log of each ticket.
type HistoryRepository interface {
	// Append assigns the entry the next Seq of its ticket. AuthoredAt is
	// clamped so it never precedes the previous entry.
	Append(ctx context.Context, entry *domain.HistoryEntry) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.HistoryEntry, error)
}

type historyRepository struct {
	pool  *pgxpool.Pool
	retry Retrier
}

// NewHistoryRepository builds the postgres history repository.
func NewHistoryRepository(pool *pgxpool.Pool, retry Retrier) HistoryRepository {
	return &historyRepository{pool: pool, retry: retry}
}

func (r *historyRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	return r.retry.Write(ctx, func() error {
		return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			var locked int64
			err := tx.QueryRow(ctx, `SELECT id FROM tickets WHERE id=$1 FOR UPDATE`, entry.TicketID).Scan(&locked)
			if err != nil {
				return notFoundOr(err, entry.TicketID)
			}
			return appendHistoryTx(ctx, tx, entry)
		})
	})
}

// appendHistoryTx expects the caller to hold the parent ticket's row lock.
func appendHistoryTx(ctx context.Context, tx pgx.Tx, entry *domain.HistoryEntry) error {
	var (
		lastSeq int
		lastAt  *time.Time
	)
	const tail = `
        SELECT seq, authored_at FROM ticket_history
        WHERE ticket_id=$1 ORDER BY seq DESC LIMIT 1`
	err := tx.QueryRow(ctx, tail, entry.TicketID).Scan(&lastSeq, &lastAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if lastAt != nil && entry.AuthoredAt.Before(*lastAt) {
		entry.AuthoredAt = *lastAt
	}
	entry.Seq = lastSeq + 1

	const insert = `
        INSERT INTO ticket_history (ticket_id, seq, kind, author_id, author_name, body, authored_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return tx.QueryRow(ctx, insert,
		entry.TicketID,
		entry.Seq,
		string(entry.Kind),
		entry.AuthorID,
		entry.AuthorName,
		entry.Body,
		entry.AuthoredAt,
	).Scan(&entry.ID)
}

func (r *historyRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT id, ticket_id, seq, kind, author_id, author_name, body, authored_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY seq ASC`
	var result []domain.HistoryEntry
	err := r.retry.Read(ctx, func() error {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticketID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}

		rows, err := r.pool.Query(ctx, query, ticketID)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = []domain.HistoryEntry{}
		for rows.Next() {
			var (
				entry domain.HistoryEntry
				kind  string
			)
			if err := rows.Scan(
				&entry.ID,
				&entry.TicketID,
				&entry.Seq,
				&kind,
				&entry.AuthorID,
				&entry.AuthorName,
				&entry.Body,
				&entry.AuthoredAt,
			); err != nil {
				return err
			}
			entry.Kind = domain.HistoryEntryKind(kind)
			result = append(result, entry)
		}
		return rows.Err()
	})
	return result, err
}
