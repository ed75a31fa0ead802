package subscription

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
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	ListByEndpoint(ctx context.Context, endpointID string) ([]Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	Delete(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const subscriptionColumns = "id, endpoint_id, addr_id, active, location, tags, senders, level, level_match, filter, created_at, updated_at"

func (r *PostgresRepository) Create(ctx context.Context, sub *Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	query := `
		INSERT INTO subscription (id, endpoint_id, addr_id, active, location, tags, senders, level, level_match, filter, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.EndpointID, sub.AddrID, sub.Active,
		nullString(sub.Location), pq.Array(sub.Tags), pq.Array(sub.Senders),
		sub.Level, sub.LevelMatch, nullString(sub.Filter),
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return pkgerrors.ErrNotFound.WithCause(err).WithDetail("message", "endpoint not found")
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Subscription, error) {
	query := "SELECT " + subscriptionColumns + " FROM subscription WHERE id = $1"

	sub, err := scanSubscription(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithCause(err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (r *PostgresRepository) ListByEndpoint(ctx context.Context, endpointID string) ([]Subscription, error) {
	query := "SELECT " + subscriptionColumns + " FROM subscription WHERE endpoint_id = $1 ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, endpointID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}

	return subs, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, sub *Subscription) error {
	query := `
		UPDATE subscription
		SET active = $2, location = $3, tags = $4, senders = $5, level = $6, level_match = $7, filter = $8, updated_at = $9
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		sub.ID, sub.Active, nullString(sub.Location),
		pq.Array(sub.Tags), pq.Array(sub.Senders),
		sub.Level, sub.LevelMatch, nullString(sub.Filter), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrNotFound.WithDetail("id", sub.ID)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM subscription WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	var sub Subscription
	var location, filter sql.NullString

	err := row.Scan(
		&sub.ID, &sub.EndpointID, &sub.AddrID, &sub.Active,
		&location, pq.Array(&sub.Tags), pq.Array(&sub.Senders),
		&sub.Level, &sub.LevelMatch, &filter,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.Location = location.String
	sub.Filter = filter.String
	return &sub, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
