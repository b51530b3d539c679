package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Sequencer hands out increasing numbers per scope, starting at 1.
type Sequencer interface {
	Next(ctx context.Context, scope string) (int64, error)
}

// ProtocolScope is the per-day scope protocol numbers are sequenced under.
func ProtocolScope(at time.Time) string {
	return at.UTC().Format("20060102")
}

// FormatProtocol renders the human-readable protocol of a ticket.
func FormatProtocol(scope string, number int64) string {
	return fmt.Sprintf("%s-%04d", scope, number)
}

const redisCounterTTL = 48 * time.Hour

type redisSequencer struct {
	client *redis.Client
	prefix string
	retry  Retrier
}

// NewRedisSequencer counts with INCR on "<prefix>:<scope>" keys that expire
// once the day is well past.
func NewRedisSequencer(client *redis.Client, prefix string, retry Retrier) Sequencer {
	return &redisSequencer{client: client, prefix: prefix, retry: retry}
}

func (s *redisSequencer) Next(ctx context.Context, scope string) (int64, error) {
	key := s.prefix + ":" + scope
	var incr *redis.IntCmd
	err := s.retry.Write(ctx, func() error {
		// INCR and EXPIRE commit together so a counter never advances without its TTL.
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, redisCounterTTL)
			return nil
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", key, err)
	}
	return incr.Val(), nil
}

type postgresSequencer struct {
	pool  *pgxpool.Pool
	retry Retrier
}

// NewPostgresSequencer counts in the protocol_counters table.
func NewPostgresSequencer(pool *pgxpool.Pool, retry Retrier) Sequencer {
	return &postgresSequencer{pool: pool, retry: retry}
}

func (s *postgresSequencer) Next(ctx context.Context, scope string) (int64, error) {
	const query = `
        INSERT INTO protocol_counters (scope, value) VALUES ($1, 1)
        ON CONFLICT (scope) DO UPDATE SET value = protocol_counters.value + 1
        RETURNING value`
	var value int64
	err := s.retry.Write(ctx, func() error {
		return s.pool.QueryRow(ctx, query, scope).Scan(&value)
	})
	return value, err
}
