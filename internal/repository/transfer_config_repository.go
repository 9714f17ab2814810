package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dvkit/transfer/internal/transform"
)

type transferConfigRepository struct {
	pool *pgxpool.Pool
}

// NewTransferConfigRepository creates a config repository backed by
// postgres. The whole config is stored as a jsonb payload; name and
// environments are denormalized for listing.
func NewTransferConfigRepository(pool *pgxpool.Pool) TransferConfigRepository {
	return &transferConfigRepository{pool: pool}
}

func (r *transferConfigRepository) Save(ctx context.Context, cfg transform.TransferConfig) (StoredTransferConfig, error) {
	if err := cfg.Validate(); err != nil {
		return StoredTransferConfig{}, fmt.Errorf("save config: %w", err)
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		return StoredTransferConfig{}, fmt.Errorf("encode config %q: %w", cfg.Name, err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO transfer_configs (name, source_env, target_env, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET source_env = EXCLUDED.source_env,
		    target_env = EXCLUDED.target_env,
		    payload = EXCLUDED.payload,
		    updated_at = now()
		RETURNING id, payload, created_at, updated_at
	`, cfg.Name, cfg.SourceEnv, cfg.TargetEnv, payload)

	stored, err := scanStoredConfig(row)
	if err != nil {
		return StoredTransferConfig{}, fmt.Errorf("save config %q: %w", cfg.Name, err)
	}
	return stored, nil
}

func (r *transferConfigRepository) GetByName(ctx context.Context, name string) (StoredTransferConfig, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, payload, created_at, updated_at
		FROM transfer_configs
		WHERE name = $1
	`, name)

	stored, err := scanStoredConfig(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StoredTransferConfig{}, fmt.Errorf("config %q: %w", name, ErrNotFound)
		}
		return StoredTransferConfig{}, fmt.Errorf("get config %q: %w", name, err)
	}
	return stored, nil
}

func (r *transferConfigRepository) List(ctx context.Context) ([]StoredTransferConfig, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, payload, created_at, updated_at
		FROM transfer_configs
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	defer rows.Close()

	var configs []StoredTransferConfig
	for rows.Next() {
		stored, err := scanStoredConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("list configs: %w", err)
		}
		configs = append(configs, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	return configs, nil
}

func (r *transferConfigRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transfer_configs WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete config %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("config %q: %w", name, ErrNotFound)
	}
	return nil
}

func scanStoredConfig(row pgx.Row) (StoredTransferConfig, error) {
	var stored StoredTransferConfig
	var payload []byte
	if err := row.Scan(&stored.ID, &payload, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
		return StoredTransferConfig{}, err
	}
	if err := json.Unmarshal(payload, &stored.Config); err != nil {
		return StoredTransferConfig{}, fmt.Errorf("decode payload: %w", err)
	}
	return stored, nil
}
