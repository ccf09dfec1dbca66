// Package postgres implements repository.Store on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/repository"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Update runs fn in a read-write transaction. The transaction is committed
// only when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{}, fn)
}

func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

func (s *Store) run(ctx context.Context, opts pgx.TxOptions, fn func(tx repository.Tx) error) error {
	pgTx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer pgTx.Rollback(ctx)

	if err := fn(&tx{tx: pgTx}); err != nil {
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type tx struct {
	tx pgx.Tx
}

// mapErr translates driver errors into repository sentinels.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, models.ErrAlreadyExists)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (t *tx) Purge(ctx context.Context, table, column string, values ...any) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	query, args, err := psql.Delete(table).Where(sq.Eq{column: values}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build purge of %s: %w", table, err)
	}
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapErr(err, "failed to purge "+table)
	}
	return tag.RowsAffected(), nil
}
