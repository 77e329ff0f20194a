package webuiRepository

import (
	"CutoutDemo/internal/entity"

	"golang.org/x/net/context"
)

// Repository stores cutout URLs newest first.
type Repository interface {
	List(ctx context.Context) ([]entity.HistoryEntry, error)
	Prepend(ctx context.Context, entry entity.HistoryEntry) error
	Clear(ctx context.Context) error
}
