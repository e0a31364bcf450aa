package model

import (
	"time"
)

const (
	SOS_ACTIVE    = "active"
	SOS_RESOLVED  = "resolved"
	SOS_CANCELLED = "cancelled"
)

// SOSEvent is an emergency alert. At most one active event may exist
// per unit; resolved and cancelled are terminal.
type SOSEvent struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	UnitID     uint       `gorm:"index;not null" json:"unit_id"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Status     string     `gorm:"size:20;index;default:active" json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func (s *SOSEvent) IsActive() bool {
	return s != nil && s.Status == SOS_ACTIVE
}

type WebSOS struct {
	ID         uint       `json:"id"`
	UnitID     uint       `json:"unit_id"`
	Callsign   string     `json:"callsign,omitempty"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func (s *SOSEvent) ToWeb(callsign string) *WebSOS {
	if s == nil {
		return nil
	}

	return &WebSOS{
		ID:         s.ID,
		UnitID:     s.UnitID,
		Callsign:   callsign,
		Lat:        s.Lat,
		Lng:        s.Lng,
		Status:     s.Status,
		CreatedAt:  s.CreatedAt,
		ResolvedAt: s.ResolvedAt,
	}
}
