package tracker

import (
	"context"
	"time"

	"github.com/patrolhub/patrolhub/internal/model"
)

// Storage is the persistence collaborator. UpsertUnit never touches the
// online flag - presence belongs to the session table.
type Storage interface {
	UpsertUnit(ctx context.Context, callsign, name string) (*model.Unit, error)
	SetUnitOnline(ctx context.Context, id uint, online bool) error
	SetUnitStream(ctx context.Context, id uint, streamRef string) error

	AppendPosition(ctx context.Context, p *model.Position) error
	QueryPositions(ctx context.Context, unitID uint, after time.Time, limit int) ([]*model.Position, error)
	LastPositionTime(ctx context.Context, unitID uint) (time.Time, error)

	InsertSOS(ctx context.Context, s *model.SOSEvent) error
	ActiveSOS(ctx context.Context, unitID uint) (*model.SOSEvent, error)
	CloseActiveSOS(ctx context.Context, unitID uint, status string, t time.Time) (*model.SOSEvent, error)

	CountUnits(ctx context.Context) (int64, error)
	CountOnlineUnits(ctx context.Context) (int64, error)
	CountActiveSOS(ctx context.Context) (int64, error)
}
