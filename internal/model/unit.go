package model

import (
	"time"
)

// Unit is a tracked field entity, identified by its callsign.
// The Online flag is owned by the session table transition logic and
// must not be written from anywhere else.
type Unit struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Callsign  string    `gorm:"uniqueIndex;size:50;not null" json:"callsign"`
	Name      string    `gorm:"size:100" json:"name"`
	StreamRef string    `gorm:"size:100" json:"stream_ref"`
	Online    bool      `gorm:"index" json:"online"`
	CreatedAt time.Time `json:"created_at"`
}

type WebUnit struct {
	ID        uint      `json:"id"`
	Callsign  string    `json:"callsign"`
	Name      string    `json:"name"`
	StreamRef string    `json:"stream_ref,omitempty"`
	Online    bool      `json:"online"`
	CreatedAt time.Time `json:"created_at"`

	Lat      float64    `json:"lat,omitempty"`
	Lng      float64    `json:"lng,omitempty"`
	Accuracy float64    `json:"accuracy,omitempty"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

func (u *Unit) ToWeb() *WebUnit {
	if u == nil {
		return nil
	}

	return &WebUnit{
		ID:        u.ID,
		Callsign:  u.Callsign,
		Name:      u.Name,
		StreamRef: u.StreamRef,
		Online:    u.Online,
		CreatedAt: u.CreatedAt,
	}
}

// WithPosition decorates the unit view with the last position reported
// in the current session, if any.
func (w *WebUnit) WithPosition(p *PositionEvent) *WebUnit {
	if w == nil || p == nil {
		return w
	}

	w.Lat = p.Lat
	w.Lng = p.Lng
	w.Accuracy = p.Accuracy
	t := p.Time
	w.LastSeen = &t

	return w
}
