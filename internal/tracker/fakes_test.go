package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrolhub/patrolhub/internal/model"
)

type fakeStorage struct {
	mx        sync.Mutex
	nextID    uint
	units     map[string]*model.Unit
	positions []*model.Position
	sos       []*model.SOSEvent

	failPositions bool
	failOnline    bool
	failCounts    bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{units: make(map[string]*model.Unit)}
}

func (f *fakeStorage) UpsertUnit(_ context.Context, callsign, name string) (*model.Unit, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if u, ok := f.units[callsign]; ok {
		if name != "" && (u.Name == "" || u.Name == u.Callsign) {
			u.Name = name
		}

		return u, nil
	}

	f.nextID++

	if name == "" {
		name = callsign
	}

	u := &model.Unit{ID: f.nextID, Callsign: callsign, Name: name, CreatedAt: time.Now()}
	f.units[callsign] = u

	return u, nil
}

func (f *fakeStorage) SetUnitOnline(_ context.Context, id uint, online bool) error {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.failOnline {
		return fmt.Errorf("storage down")
	}

	for _, u := range f.units {
		if u.ID == id {
			u.Online = online

			return nil
		}
	}

	return fmt.Errorf("unit %d not found", id)
}

func (f *fakeStorage) SetUnitStream(_ context.Context, id uint, streamRef string) error {
	f.mx.Lock()
	defer f.mx.Unlock()

	for _, u := range f.units {
		if u.ID == id {
			u.StreamRef = streamRef

			return nil
		}
	}

	return fmt.Errorf("unit %d not found", id)
}

func (f *fakeStorage) AppendPosition(_ context.Context, p *model.Position) error {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.failPositions {
		return fmt.Errorf("storage down")
	}

	f.positions = append(f.positions, p)

	return nil
}

func (f *fakeStorage) QueryPositions(_ context.Context, unitID uint, _ time.Time, limit int) ([]*model.Position, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	res := make([]*model.Position, 0)

	for _, p := range f.positions {
		if p.UnitID == unitID && len(res) < limit {
			res = append(res, p)
		}
	}

	return res, nil
}

func (f *fakeStorage) LastPositionTime(_ context.Context, unitID uint) (time.Time, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	var res time.Time

	for _, p := range f.positions {
		if p.UnitID == unitID && p.CreatedAt.After(res) {
			res = p.CreatedAt
		}
	}

	return res, nil
}

func (f *fakeStorage) InsertSOS(_ context.Context, s *model.SOSEvent) error {
	f.mx.Lock()
	defer f.mx.Unlock()

	f.nextID++
	s.ID = f.nextID
	f.sos = append(f.sos, s)

	return nil
}

func (f *fakeStorage) ActiveSOS(_ context.Context, unitID uint) (*model.SOSEvent, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	for _, s := range f.sos {
		if s.UnitID == unitID && s.Status == model.SOS_ACTIVE {
			return s, nil
		}
	}

	return nil, nil
}

func (f *fakeStorage) CloseActiveSOS(_ context.Context, unitID uint, status string, t time.Time) (*model.SOSEvent, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	for _, s := range f.sos {
		if s.UnitID == unitID && s.Status == model.SOS_ACTIVE {
			s.Status = status
			s.ResolvedAt = &t

			return s, nil
		}
	}

	return nil, nil
}

func (f *fakeStorage) CountUnits(_ context.Context) (int64, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.failCounts {
		return 0, fmt.Errorf("storage down")
	}

	return int64(len(f.units)), nil
}

func (f *fakeStorage) CountOnlineUnits(_ context.Context) (int64, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.failCounts {
		return 0, fmt.Errorf("storage down")
	}

	var n int64

	for _, u := range f.units {
		if u.Online {
			n++
		}
	}

	return n, nil
}

func (f *fakeStorage) CountActiveSOS(_ context.Context) (int64, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	if f.failCounts {
		return 0, fmt.Errorf("storage down")
	}

	var n int64

	for _, s := range f.sos {
		if s.Status == model.SOS_ACTIVE {
			n++
		}
	}

	return n, nil
}

func (f *fakeStorage) activeCount(unitID uint) int {
	f.mx.Lock()
	defer f.mx.Unlock()

	n := 0

	for _, s := range f.sos {
		if s.UnitID == unitID && s.Status == model.SOS_ACTIVE {
			n++
		}
	}

	return n
}

type fakeObserver struct {
	name   string
	mx     sync.Mutex
	events []*model.WebMessage
	active bool
}

func newFakeObserver(name string) *fakeObserver {
	return &fakeObserver{name: name, active: true}
}

func (o *fakeObserver) GetName() string {
	return o.name
}

func (o *fakeObserver) IsActive() bool {
	return o.active
}

func (o *fakeObserver) SendEvent(msg *model.WebMessage) bool {
	if !o.active {
		return false
	}

	o.mx.Lock()
	defer o.mx.Unlock()

	o.events = append(o.events, msg)

	return true
}

func (o *fakeObserver) byType(typ string) []*model.WebMessage {
	o.mx.Lock()
	defer o.mx.Unlock()

	res := make([]*model.WebMessage, 0)

	for _, m := range o.events {
		if m.Typ == typ {
			res = append(res, m)
		}
	}

	return res
}

func (o *fakeObserver) reset() {
	o.mx.Lock()
	defer o.mx.Unlock()

	o.events = nil
}
