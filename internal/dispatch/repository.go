package dispatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/alttch/roboger/internal/plugin"
)

// Target is one active subscription joined with its active endpoint,
// flattened for matching and delivery.
type Target struct {
	SubscriptionID string
	EndpointID     string
	PluginName     string
	Config         plugin.Config
	SkipDups       int
	Location       string
	Tags           []string
	Senders        []string
	Level          int
	LevelMatch     string
	Filter         string
}

// Repository loads the dispatch targets for an addr.
type Repository interface {
	ActiveTargets(ctx context.Context, addrID string) ([]Target, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

// ActiveTargets returns every active subscription of every active endpoint
// owned by the addr in one round trip.
func (r *PostgresRepository) ActiveTargets(ctx context.Context, addrID string) ([]Target, error) {
	query := `
		SELECT s.id, e.id, e.plugin_name, e.config, e.skip_dups,
		       COALESCE(s.location, ''), s.tags, s.senders, s.level, s.level_match,
		       COALESCE(s.filter, '')
		FROM subscription s
		JOIN endpoint e ON e.id = s.endpoint_id
		WHERE s.addr_id = $1 AND s.active AND e.active
	`

	rows, err := r.db.QueryContext(ctx, query, addrID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dispatch targets: %w", err)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var t Target
		var cfg []byte
		if err := rows.Scan(
			&t.SubscriptionID, &t.EndpointID, &t.PluginName, &cfg, &t.SkipDups,
			&t.Location, pq.Array(&t.Tags), pq.Array(&t.Senders),
			&t.Level, &t.LevelMatch, &t.Filter,
		); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch target: %w", err)
		}
		if len(cfg) > 0 {
			if err := json.Unmarshal(cfg, &t.Config); err != nil {
				return nil, fmt.Errorf("failed to decode endpoint config: %w", err)
			}
		}
		targets = append(targets, t)
	}

	return targets, rows.Err()
}
