package model

import (
	"time"
)

// Position is one GPS fix, append-only.
type Position struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UnitID    uint      `gorm:"index:idx_position_unit,priority:1;not null" json:"unit_id"`
	Lat       float64   `gorm:"not null" json:"lat"`
	Lng       float64   `gorm:"not null" json:"lng"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	CreatedAt time.Time `gorm:"index:idx_position_unit,priority:2" json:"recorded_at"`
}

// PositionEvent is the broadcast form of a fix. Time is always assigned
// by the server, never taken from the client.
type PositionEvent struct {
	UnitID   uint      `json:"unit_id"`
	Callsign string    `json:"callsign"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	Accuracy float64   `json:"accuracy,omitempty"`
	Time     time.Time `json:"time"`
}
