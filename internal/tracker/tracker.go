package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrolhub/patrolhub/internal/model"
)

// Observer is any connected party receiving broadcasts. SendEvent must
// not block; it reports false once the peer is gone.
type Observer interface {
	GetName() string
	IsActive() bool
	SendEvent(msg *model.WebMessage) bool
}

// Tracker is the presence core: it owns the session table, routes
// connection events and fans results out to all observers.
type Tracker struct {
	logger   *slog.Logger
	storage  Storage
	sessions *SessionTable
	timeout  time.Duration

	observers sync.Map
	sosLocks  sync.Map
}

func New(storage Storage, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = time.Second * 3
	}

	return &Tracker{
		logger:   slog.With("logger", "tracker"),
		storage:  storage,
		sessions: NewSessionTable(),
		timeout:  timeout,
	}
}

func (t *Tracker) Sessions() *SessionTable {
	return t.sessions
}

// LastPosition returns the freshest position cached for a unit in the
// current sessions, nil if the unit has not reported since joining.
func (t *Tracker) LastPosition(unitID uint) *model.PositionEvent {
	return t.sessions.LastPositionForUnit(unitID)
}

// Connect registers an observer. Every connection observes from the
// moment it is accepted, bound to a unit or not.
func (t *Tracker) Connect(obs Observer) {
	t.observers.Store(obs.GetName(), obs)
	observersMetric.Inc()
}

// HandleEvent routes one inbound event. Broadcasts happen inside the
// per-event handlers; the returned error is for the sender only.
func (t *Tracker) HandleEvent(connID string, msg *model.WebMessage) error {
	if msg == nil || msg.Typ == "" {
		return fmt.Errorf("%w: empty message", ErrValidation)
	}

	eventsMetric.WithLabelValues(msg.Typ).Inc()

	switch msg.Typ {
	case model.EVT_JOIN:
		_, err := t.Join(connID, msg.Join)

		return err
	case model.EVT_POSITION:
		_, err := t.Position(connID, msg.Pos)

		return err
	case model.EVT_STREAM_UPDATE:
		return t.StreamUpdate(connID, msg.Stream)
	case model.EVT_SOS_RAISE:
		_, err := t.RaiseSOS(connID, msg.Pos)

		return err
	case model.EVT_SOS_CANCEL:
		return t.CancelSOS(connID)
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrValidation, msg.Typ)
	}
}

// Join resolves the callsign to a unit, binds the session and flips the
// unit online. The sender gets unit_registered, everyone else
// unit_online.
func (t *Tracker) Join(connID string, p *model.JoinPayload) (*model.Unit, error) {
	if p == nil || p.Callsign == "" {
		return nil, fmt.Errorf("%w: callsign required", ErrValidation)
	}

	if t.sessions.Lookup(connID) != nil {
		return nil, ErrAlreadyBound
	}

	ctx, cancel := t.opCtx()
	defer cancel()

	unit, err := t.storage.UpsertUnit(ctx, p.Callsign, p.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStorage, err.Error())
	}

	// stream ref defaults to the callsign until the unit pushes one
	if err := t.storage.SetUnitStream(ctx, unit.ID, unit.Callsign); err != nil {
		t.logger.Warn("stream ref seed failed", slog.Any("error", err))
	} else {
		unit.StreamRef = unit.Callsign
	}

	if _, err := t.sessions.Bind(connID, unit); err != nil {
		return nil, err
	}

	if err := t.storage.SetUnitOnline(ctx, unit.ID, true); err != nil {
		t.sessions.Unbind(connID)

		return nil, fmt.Errorf("%w: %s", ErrStorage, err.Error())
	}

	unit.Online = true

	t.logger.Info("unit joined", slog.String("callsign", unit.Callsign), slog.Uint64("id", uint64(unit.ID)))

	t.SendTo(connID, &model.WebMessage{Typ: model.EVT_UNIT_REGISTERED, Unit: unit.ToWeb()})
	t.SendToAllOther(&model.WebMessage{Typ: model.EVT_UNIT_ONLINE, Unit: unit.ToWeb()}, connID)
	t.PublishStats()

	return unit, nil
}

// Position appends a fix and republishes it with a server timestamp. A
// failed append is logged and does not stop the broadcast.
func (t *Tracker) Position(connID string, p *model.PositionPayload) (*model.PositionEvent, error) {
	s := t.sessions.Lookup(connID)
	if s == nil {
		return nil, ErrUnbound
	}

	lat, lng, err := checkCoords(p)
	if err != nil {
		return nil, err
	}

	evt := &model.PositionEvent{
		UnitID:   s.UnitID(),
		Callsign: s.Callsign(),
		Lat:      lat,
		Lng:      lng,
		Time:     time.Now().UTC(),
	}

	if p.Accuracy != nil {
		evt.Accuracy = *p.Accuracy
	}

	ctx, cancel := t.opCtx()
	defer cancel()

	pos := &model.Position{UnitID: s.UnitID(), Lat: lat, Lng: lng, Accuracy: evt.Accuracy}

	if err := t.storage.AppendPosition(ctx, pos); err != nil {
		// freshness wins over history completeness
		t.logger.Error("position append failed", slog.Any("error", err))
	}

	s.SetLastPosition(evt)
	t.SendToAll(&model.WebMessage{Typ: model.EVT_POSITION_UPDATE, PosEvt: evt})

	return evt, nil
}

func (t *Tracker) StreamUpdate(connID string, p *model.StreamPayload) error {
	s := t.sessions.Lookup(connID)
	if s == nil {
		return ErrUnbound
	}

	if p == nil || p.StreamRef == "" {
		return fmt.Errorf("%w: stream_ref required", ErrValidation)
	}

	ctx, cancel := t.opCtx()
	defer cancel()

	if err := t.storage.SetUnitStream(ctx, s.UnitID(), p.StreamRef); err != nil {
		return fmt.Errorf("%w: %s", ErrStorage, err.Error())
	}

	t.SendToAll(&model.WebMessage{
		Typ:    model.EVT_STREAM_UPDATED,
		Stream: &model.StreamPayload{UnitID: s.UnitID(), Callsign: s.Callsign(), StreamRef: p.StreamRef},
	})

	return nil
}

// RaiseSOS creates an active alert for the session's unit. A second
// raise before resolution fails with ErrSOSConflict. The check and the
// insert are serialized per unit; a concurrent raise through another
// process is not covered.
func (t *Tracker) RaiseSOS(connID string, p *model.PositionPayload) (*model.SOSEvent, error) {
	s := t.sessions.Lookup(connID)
	if s == nil {
		return nil, ErrUnbound
	}

	lat, lng, err := checkCoords(p)
	if err != nil {
		return nil, err
	}

	mx := t.unitLock(s.UnitID())
	mx.Lock()
	defer mx.Unlock()

	ctx, cancel := t.opCtx()
	defer cancel()

	active, err := t.storage.ActiveSOS(ctx, s.UnitID())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStorage, err.Error())
	}

	if active != nil {
		return nil, ErrSOSConflict
	}

	evt := &model.SOSEvent{
		UnitID:    s.UnitID(),
		Lat:       lat,
		Lng:       lng,
		Status:    model.SOS_ACTIVE,
		CreatedAt: time.Now().UTC(),
	}

	if err := t.storage.InsertSOS(ctx, evt); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStorage, err.Error())
	}

	t.logger.Info("sos raised", slog.String("callsign", s.Callsign()))

	t.SendToAll(&model.WebMessage{Typ: model.EVT_SOS_RAISED, SOS: evt.ToWeb(s.Callsign())})
	t.PublishStats()

	return evt, nil
}

// CancelSOS closes the unit's active alert. With no active alert it is
// a no-op: no broadcast, no error.
func (t *Tracker) CancelSOS(connID string) error {
	s := t.sessions.Lookup(connID)
	if s == nil {
		return ErrUnbound
	}

	mx := t.unitLock(s.UnitID())
	mx.Lock()
	defer mx.Unlock()

	ctx, cancel := t.opCtx()
	defer cancel()

	evt, err := t.storage.CloseActiveSOS(ctx, s.UnitID(), model.SOS_CANCELLED, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStorage, err.Error())
	}

	if evt == nil {
		return nil
	}

	t.logger.Info("sos cancelled", slog.String("callsign", s.Callsign()))

	t.SendToAll(&model.WebMessage{Typ: model.EVT_SOS_CANCELLED, SOS: evt.ToWeb(s.Callsign())})
	t.PublishStats()

	return nil
}

// Disconnect removes the observer and, when the connection held the
// last session of its unit, flips the unit offline. A connection that
// never joined leaves no trace.
func (t *Tracker) Disconnect(connID string) {
	t.dropObserver(connID)

	s, last := t.sessions.Unbind(connID)
	if s == nil {
		return
	}

	if !last {
		t.PublishStats()

		return
	}

	ctx, cancel := t.opCtx()
	defer cancel()

	if err := t.storage.SetUnitOnline(ctx, s.UnitID(), false); err != nil {
		// do not announce a transition that is not in storage
		t.logger.Error("offline flip failed", slog.String("callsign", s.Callsign()), slog.Any("error", err))

		return
	}

	t.logger.Info("unit left", slog.String("callsign", s.Callsign()))

	t.SendToAll(&model.WebMessage{
		Typ:  model.EVT_UNIT_OFFLINE,
		Unit: &model.WebUnit{ID: s.UnitID(), Callsign: s.Callsign()},
	})
	t.PublishStats()
}

// Stats recomputes the aggregate counts from storage. No caching.
func (t *Tracker) Stats() (*model.StatsSnapshot, error) {
	ctx, cancel := t.opCtx()
	defer cancel()

	units, err := t.storage.CountUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStorage, err.Error())
	}

	online, err := t.storage.CountOnlineUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStorage, err.Error())
	}

	sos, err := t.storage.CountActiveSOS(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStorage, err.Error())
	}

	return &model.StatsSnapshot{Units: units, Online: online, ActiveSOS: sos, Time: time.Now().UTC()}, nil
}

func (t *Tracker) PublishStats() {
	snap, err := t.Stats()
	if err != nil {
		t.logger.Error("stats recompute failed", slog.Any("error", err))

		return
	}

	t.SendToAll(&model.WebMessage{Typ: model.EVT_STATS, Stats: snap})
}

func (t *Tracker) SendTo(name string, msg *model.WebMessage) {
	if v, ok := t.observers.Load(name); ok {
		if obs, ok := v.(Observer); ok {
			if !obs.SendEvent(msg) {
				t.dropObserver(name)
			}
		}
	}
}

func (t *Tracker) SendToAll(msg *model.WebMessage) {
	t.SendToAllOther(msg, "")
}

func (t *Tracker) SendToAllOther(msg *model.WebMessage, except string) {
	t.observers.Range(func(key, value any) bool {
		if key.(string) == except {
			return true
		}

		if obs, ok := value.(Observer); ok {
			if !obs.SendEvent(msg) {
				t.dropObserver(key)
			}
		}

		return true
	})
}

// dropObserver is the single removal point, so the gauge stays in step
// however the observer goes away.
func (t *Tracker) dropObserver(name any) {
	if _, ok := t.observers.LoadAndDelete(name); ok {
		observersMetric.Dec()
	}
}

func (t *Tracker) unitLock(id uint) *sync.Mutex {
	v, _ := t.sosLocks.LoadOrStore(id, &sync.Mutex{})

	return v.(*sync.Mutex)
}

func (t *Tracker) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), t.timeout)
}

func checkCoords(p *model.PositionPayload) (float64, float64, error) {
	if p == nil || p.Lat == nil || p.Lng == nil {
		return 0, 0, fmt.Errorf("%w: lat and lng required", ErrValidation)
	}

	lat, lng := *p.Lat, *p.Lng

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}

	return lat, lng, nil
}
