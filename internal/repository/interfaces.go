package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dvkit/transfer/internal/transform"
)

// ErrNotFound is returned when a named config does not exist.
var ErrNotFound = errors.New("transfer config not found")

// StoredTransferConfig is a persisted config with its row metadata.
type StoredTransferConfig struct {
	ID        uuid.UUID                `json:"id"`
	Config    transform.TransferConfig `json:"config"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// TransferConfigRepository persists transfer configs. Save upserts by
// config name.
type TransferConfigRepository interface {
	Save(ctx context.Context, cfg transform.TransferConfig) (StoredTransferConfig, error)
	GetByName(ctx context.Context, name string) (StoredTransferConfig, error)
	List(ctx context.Context) ([]StoredTransferConfig, error)
	Delete(ctx context.Context, name string) error
}
