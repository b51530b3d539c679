package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/chamado-service/internal/domain"
	apperrors "github.com/spec-kit/chamado-service/pkg/util/errorutil"
)

// MutationFunc applies a transition to a locked copy of a ticket. A non-nil
// entry is appended to the ticket's history in the same atomic step and has
// its ID and Seq filled in by the store.
type MutationFunc func(ticket *domain.Ticket) (*domain.HistoryEntry, error)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// Claim atomically moves a queued ticket to ASSIGNED. Exactly one of
	// several concurrent claims on the same ticket succeeds.
	Claim(ctx context.Context, id int64, technicianID, technicianName string, at time.Time) (*domain.Ticket, error)
	Mutate(ctx context.Context, id int64, mutate MutationFunc) (*domain.Ticket, error)
	// Find returns one page of matching tickets and the total match count.
	Find(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
}

const ticketColumns = `id, protocol, requester_id, requester_name, secretariat, origin_sector, destination_sector,
               problem_type, opening_reason, status, assignee_id, assignee_name, resolution_reason,
               version, created_at, last_transition_at`

type ticketRepository struct {
	pool  *pgxpool.Pool
	retry Retrier
}

// NewTicketRepository instantiates the postgres repository.
func NewTicketRepository(pool *pgxpool.Pool, retry Retrier) TicketRepository {
	return &ticketRepository{pool: pool, retry: retry}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := ticket.CheckInvariants(); err != nil {
		return apperrors.NewInternalError(err)
	}
	const query = `
        INSERT INTO tickets (protocol, requester_id, requester_name, secretariat, origin_sector, destination_sector,
                             problem_type, opening_reason, status, created_at, last_transition_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, version`
	return r.retry.Write(ctx, func() error {
		return r.pool.QueryRow(ctx, query,
			ticket.Protocol,
			ticket.RequesterID,
			ticket.RequesterName,
			ticket.Secretariat,
			ticket.OriginSector,
			ticket.DestinationSector,
			string(ticket.ProblemType),
			ticket.OpeningReason,
			string(ticket.Status),
			ticket.CreatedAt,
			ticket.LastTransitionAt,
		).Scan(&ticket.ID, &ticket.Version)
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket *domain.Ticket
	err := r.retry.Read(ctx, func() error {
		found, err := scanTicket(r.pool.QueryRow(ctx, query, id))
		if err != nil {
			return notFoundOr(err, id)
		}
		ticket = found
		return nil
	})
	return ticket, err
}

func (r *ticketRepository) Claim(ctx context.Context, id int64, technicianID, technicianName string, at time.Time) (*domain.Ticket, error) {
	query := `
        UPDATE tickets
        SET status=$2, assignee_id=$3, assignee_name=$4, last_transition_at=$5, version=version+1
        WHERE id=$1 AND status IN ($6,$7)
        RETURNING ` + ticketColumns
	var claimed *domain.Ticket
	err := r.retry.Write(ctx, func() error {
		ticket, err := scanTicket(r.pool.QueryRow(ctx, query,
			id,
			string(domain.TicketStatusAssigned),
			technicianID,
			technicianName,
			at,
			string(domain.TicketStatusOpen),
			string(domain.TicketStatusReopened),
		))
		if err != nil {
			return err
		}
		claimed = ticket
		return nil
	})
	if err == nil {
		return claimed, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// The compare-and-set matched nothing: find out why.
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := current.Claim(technicianID, technicianName, at); err != nil {
		return nil, err
	}
	// Reopened between the update and the re-read; report it as taken.
	return nil, apperrors.NewAlreadyClaimed(id)
}

func (r *ticketRepository) Mutate(ctx context.Context, id int64, mutate MutationFunc) (*domain.Ticket, error) {
	var updated *domain.Ticket
	err := r.retry.Write(ctx, func() error {
		return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			ticket, err := scanTicket(tx.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id))
			if err != nil {
				return notFoundOr(err, id)
			}

			entry, err := mutate(ticket)
			if err != nil {
				return err
			}
			if err := ticket.CheckInvariants(); err != nil {
				return apperrors.NewInternalError(err)
			}

			const update = `
                UPDATE tickets
                SET status=$2, assignee_id=$3, assignee_name=$4, resolution_reason=$5, problem_type=$6,
                    last_transition_at=$7, version=version+1
                WHERE id=$1
                RETURNING version`
			if err := tx.QueryRow(ctx, update,
				ticket.ID,
				string(ticket.Status),
				ticket.AssigneeID,
				ticket.AssigneeName,
				ticket.ResolutionReason,
				string(ticket.ProblemType),
				ticket.LastTransitionAt,
			).Scan(&ticket.Version); err != nil {
				return err
			}

			if entry != nil {
				entry.TicketID = ticket.ID
				if err := appendHistoryTx(ctx, tx, entry); err != nil {
					return err
				}
			}
			updated = ticket
			return nil
		})
	})
	return updated, err
}

func (r *ticketRepository) Find(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	where, args := filter.whereClause()
	countQuery := `SELECT COUNT(*) FROM tickets WHERE ` + where
	pageQuery := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		ticketColumns, where, filter.orderBy(), filter.Limit, filter.Offset)

	var (
		items []domain.Ticket
		total int
	)
	err := r.retry.Read(ctx, func() error {
		// One snapshot for both statements so the count matches the page.
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, pageQuery, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		items, err = scanTickets(rows)
		if err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		status      string
		problemType string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Protocol,
		&ticket.RequesterID,
		&ticket.RequesterName,
		&ticket.Secretariat,
		&ticket.OriginSector,
		&ticket.DestinationSector,
		&problemType,
		&ticket.OpeningReason,
		&status,
		&ticket.AssigneeID,
		&ticket.AssigneeName,
		&ticket.ResolutionReason,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.LastTransitionAt,
	); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatus(status)
	ticket.ProblemType = domain.ProblemType(problemType)
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func notFoundOr(err error, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return err
}
