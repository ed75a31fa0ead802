package addr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	pkgerrors "github.com/alttch/roboger/pkg/errors"
)

type Repository interface {
	Create(ctx context.Context, a *Addr) error
	Get(ctx context.Context, id string) (*Addr, error)
	GetByToken(ctx context.Context, token string) (*Addr, error)
	List(ctx context.Context) ([]Addr, error)
	SetActive(ctx context.Context, id string, active bool) error
	SetLimits(ctx context.Context, id string, limCount, limSize int64) error
	ChangeToken(ctx context.Context, id, newToken string) error
	Delete(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const addrColumns = "id, token, active, lim_count, lim_size, created_at"

func (r *PostgresRepository) Create(ctx context.Context, a *Addr) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now()

	query := `
		INSERT INTO addr (id, token, active, lim_count, lim_size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Token, a.Active, a.LimCount, a.LimSize, a.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", "token collision")
		}
		return fmt.Errorf("failed to create addr: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Addr, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*Addr, error) {
	return r.getWhere(ctx, "token = $1", token)
}

func (r *PostgresRepository) getWhere(ctx context.Context, where string, arg interface{}) (*Addr, error) {
	query := "SELECT " + addrColumns + " FROM addr WHERE " + where

	var a Addr
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Token, &a.Active, &a.LimCount, &a.LimSize, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithCause(err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get addr: %w", err)
	}

	return &a, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Addr, error) {
	query := "SELECT " + addrColumns + " FROM addr ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list addrs: %w", err)
	}
	defer rows.Close()

	var addrs []Addr
	for rows.Next() {
		var a Addr
		if err := rows.Scan(
			&a.ID, &a.Token, &a.Active, &a.LimCount, &a.LimSize, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan addr: %w", err)
		}
		addrs = append(addrs, a)
	}

	return addrs, rows.Err()
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, "UPDATE addr SET active = $2 WHERE id = $1", id, active)
}

func (r *PostgresRepository) SetLimits(ctx context.Context, id string, limCount, limSize int64) error {
	return r.exec(ctx, "UPDATE addr SET lim_count = $2, lim_size = $3 WHERE id = $1",
		id, limCount, limSize)
}

// ChangeToken swaps the public token in a single UPDATE, so lookups of the
// old token fail as soon as the statement commits.
func (r *PostgresRepository) ChangeToken(ctx context.Context, id, newToken string) error {
	return r.exec(ctx, "UPDATE addr SET token = $2 WHERE id = $1", id, newToken)
}

// Delete removes the addr; endpoints and subscriptions go with it via
// ON DELETE CASCADE, all within the single statement's transaction.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "DELETE FROM addr WHERE id = $1", id)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("addr query failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("addr query failed: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrNotFound.WithDetail("id", fmt.Sprint(args[0]))
	}
	return nil
}
