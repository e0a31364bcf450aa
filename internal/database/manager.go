package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/patrolhub/patrolhub/internal/model"
)

// Manager is the storage collaborator. It satisfies tracker.Storage.
type Manager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB) *Manager {
	return &Manager{
		db:     db,
		logger: slog.With("logger", "dbm"),
	}
}

func (m *Manager) Migrate() error {
	if m == nil || m.db == nil {
		return fmt.Errorf("no database")
	}

	return m.db.AutoMigrate(
		&model.Unit{},
		&model.Position{},
		&model.SOSEvent{},
	)
}

func (m *Manager) UnitQuery() *UnitQuery {
	return NewUnitQuery(m.db)
}

func (m *Manager) PositionQuery() *PositionQuery {
	return NewPositionQuery(m.db)
}

func (m *Manager) SOSQuery() *SOSQuery {
	return NewSOSQuery(m.db)
}

// UpsertUnit creates the unit if the callsign is new, otherwise updates
// the display name - only when the incoming name is non-empty and the
// stored one is still empty or the callsign default. It never touches
// the online flag.
func (m *Manager) UpsertUnit(ctx context.Context, callsign, name string) (*model.Unit, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("no database")
	}

	db := m.db.WithContext(ctx)

	u := &model.Unit{Callsign: callsign, Name: name}
	if u.Name == "" {
		u.Name = callsign
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "callsign"}},
		DoNothing: true,
	}).Create(u)

	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected > 0 {
		return u, nil
	}

	existing := NewUnitQuery(db).Callsign(callsign).One()
	if existing == nil {
		return nil, gorm.ErrRecordNotFound
	}

	if name != "" && (existing.Name == "" || existing.Name == existing.Callsign) && existing.Name != name {
		if err := NewUnitQuery(db).Id(existing.ID).Update(map[string]any{"name": name}); err != nil {
			return nil, err
		}

		existing.Name = name
	}

	return existing, nil
}

func (m *Manager) SetUnitOnline(ctx context.Context, id uint, online bool) error {
	return m.setUnitColumns(ctx, id, map[string]any{"online": online})
}

func (m *Manager) SetUnitStream(ctx context.Context, id uint, streamRef string) error {
	return m.setUnitColumns(ctx, id, map[string]any{"stream_ref": streamRef})
}

// setUnitColumns writes columns that may already hold the target value.
// The mysql driver counts changed rows, not matched ones, so zero
// affected rows only means a miss when the unit itself is gone.
func (m *Manager) setUnitColumns(ctx context.Context, id uint, updates map[string]any) error {
	db := m.db.WithContext(ctx)

	rows, err := NewUnitQuery(db).Id(id).UpdateRows(updates)
	if err != nil {
		return err
	}

	if rows == 0 {
		n, err := NewUnitQuery(db).Id(id).Count()
		if err != nil {
			return err
		}

		if n == 0 {
			return errUpdate
		}
	}

	return nil
}

func (m *Manager) AppendPosition(ctx context.Context, p *model.Position) error {
	err := m.db.WithContext(ctx).Create(p).Error

	if err != nil {
		m.logger.Error("error saving position", slog.Any("error", err))
	}

	return err
}

// QueryPositions returns the freshest fixes, oldest first.
func (m *Manager) QueryPositions(ctx context.Context, unitID uint, after time.Time, limit int) ([]*model.Position, error) {
	res := NewPositionQuery(m.db.WithContext(ctx)).Unit(unitID).After(after).Limit(limit).Get()

	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}

	return res, nil
}

func (m *Manager) LastPositionTime(ctx context.Context, unitID uint) (time.Time, error) {
	p := NewPositionQuery(m.db.WithContext(ctx)).Unit(unitID).One()

	if p == nil {
		return time.Time{}, nil
	}

	return p.CreatedAt, nil
}

func (m *Manager) InsertSOS(ctx context.Context, s *model.SOSEvent) error {
	err := m.db.WithContext(ctx).Create(s).Error

	if err != nil {
		m.logger.Error("error saving sos", slog.Any("error", err))
	}

	return err
}

func (m *Manager) ActiveSOS(ctx context.Context, unitID uint) (*model.SOSEvent, error) {
	evt := NewSOSQuery(m.db.WithContext(ctx)).Unit(unitID).Status(model.SOS_ACTIVE).One()

	return evt, nil
}

// CloseActiveSOS moves the unit's active event to a terminal status.
// Returns nil with no error if the unit has no active event.
func (m *Manager) CloseActiveSOS(ctx context.Context, unitID uint, status string, t time.Time) (*model.SOSEvent, error) {
	db := m.db.WithContext(ctx)

	evt := NewSOSQuery(db).Unit(unitID).Status(model.SOS_ACTIVE).One()
	if evt == nil {
		return nil, nil
	}

	res := db.Model(&model.SOSEvent{}).
		Where("id = ? AND status = ?", evt.ID, model.SOS_ACTIVE).
		Updates(map[string]any{"status": status, "resolved_at": t})

	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		return nil, nil
	}

	evt.Status = status
	evt.ResolvedAt = &t

	return evt, nil
}

func (m *Manager) CountUnits(ctx context.Context) (int64, error) {
	return NewUnitQuery(m.db.WithContext(ctx)).Count()
}

func (m *Manager) CountOnlineUnits(ctx context.Context) (int64, error) {
	return NewUnitQuery(m.db.WithContext(ctx)).Online(true).Count()
}

func (m *Manager) CountActiveSOS(ctx context.Context) (int64, error) {
	return NewSOSQuery(m.db.WithContext(ctx)).Status(model.SOS_ACTIVE).Count()
}
