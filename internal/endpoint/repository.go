package endpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/alttch/roboger/internal/plugin"
	pkgerrors "github.com/alttch/roboger/pkg/errors"
)

type Repository interface {
	Create(ctx context.Context, e *Endpoint) error
	Get(ctx context.Context, id string) (*Endpoint, error)
	ListByAddr(ctx context.Context, addrID string) ([]Endpoint, error)
	Update(ctx context.Context, e *Endpoint) error
	Delete(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const endpointColumns = "id, addr_id, plugin_name, config, active, description, skip_dups, created_at, updated_at"

func (r *PostgresRepository) Create(ctx context.Context, e *Endpoint) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	cfg, err := marshalConfig(e.Config)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO endpoint (id, addr_id, plugin_name, config, active, description, skip_dups, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.AddrID, e.PluginName, cfg, e.Active, e.Description, e.SkipDups,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return pkgerrors.ErrNotFound.WithCause(err).WithDetail("message", "addr not found")
		}
		return fmt.Errorf("failed to create endpoint: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Endpoint, error) {
	query := "SELECT " + endpointColumns + " FROM endpoint WHERE id = $1"

	e, err := scanEndpoint(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithCause(err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByAddr(ctx context.Context, addrID string) ([]Endpoint, error) {
	query := "SELECT " + endpointColumns + " FROM endpoint WHERE addr_id = $1 ORDER BY created_at"

	rows, err := r.db.QueryContext(ctx, query, addrID)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		endpoints = append(endpoints, *e)
	}

	return endpoints, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, e *Endpoint) error {
	cfg, err := marshalConfig(e.Config)
	if err != nil {
		return err
	}

	query := `
		UPDATE endpoint
		SET config = $2, active = $3, description = $4, skip_dups = $5, updated_at = $6
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		e.ID, cfg, e.Active, e.Description, e.SkipDups, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update endpoint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update endpoint: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrNotFound.WithDetail("id", e.ID)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM endpoint WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete endpoint: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete endpoint: %w", err)
	}
	if affected == 0 {
		return pkgerrors.ErrNotFound.WithDetail("id", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEndpoint(row rowScanner) (*Endpoint, error) {
	var e Endpoint
	var cfg []byte

	err := row.Scan(
		&e.ID, &e.AddrID, &e.PluginName, &cfg, &e.Active, &e.Description,
		&e.SkipDups, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &e.Config); err != nil {
			return nil, fmt.Errorf("failed to decode endpoint config: %w", err)
		}
	}
	if e.Config == nil {
		e.Config = plugin.Config{}
	}

	return &e, nil
}

func marshalConfig(cfg plugin.Config) ([]byte, error) {
	if cfg == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode endpoint config: %w", err)
	}
	return data, nil
}
