package model

import (
	"time"
)

// Events consumed from unit connections.
const (
	EVT_JOIN          = "join"
	EVT_POSITION      = "position"
	EVT_STREAM_UPDATE = "stream_update"
	EVT_SOS_RAISE     = "sos_raise"
	EVT_SOS_CANCEL    = "sos_cancel"
)

// Events produced for observers.
const (
	EVT_UNIT_REGISTERED = "unit_registered"
	EVT_UNIT_ONLINE     = "unit_online"
	EVT_UNIT_OFFLINE    = "unit_offline"
	EVT_POSITION_UPDATE = "position_update"
	EVT_STREAM_UPDATED  = "stream_updated"
	EVT_SOS_RAISED      = "sos_raised"
	EVT_SOS_CANCELLED   = "sos_cancelled"
	EVT_STATS           = "stats"
	EVT_ERROR           = "error"
)

// WebMessage is the envelope for everything on the event channel, both
// directions. Typ selects which payload field is set.
type WebMessage struct {
	Typ    string           `json:"type"`
	Join   *JoinPayload     `json:"join,omitempty"`
	Pos    *PositionPayload `json:"position,omitempty"`
	Stream *StreamPayload   `json:"stream,omitempty"`
	Unit   *WebUnit         `json:"unit,omitempty"`
	PosEvt *PositionEvent   `json:"position_event,omitempty"`
	SOS    *WebSOS          `json:"sos,omitempty"`
	Stats  *StatsSnapshot   `json:"stats,omitempty"`
	Err    *WebError        `json:"error,omitempty"`
}

type JoinPayload struct {
	Callsign string `json:"callsign"`
	Name     string `json:"name,omitempty"`
}

// PositionPayload uses pointers so that a missing coordinate is
// distinguishable from zero.
type PositionPayload struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

type StreamPayload struct {
	UnitID    uint   `json:"unit_id,omitempty"`
	Callsign  string `json:"callsign,omitempty"`
	StreamRef string `json:"stream_ref"`
}

type StatsSnapshot struct {
	Units     int64     `json:"units"`
	Online    int64     `json:"online"`
	ActiveSOS int64     `json:"active_sos"`
	Time      time.Time `json:"time"`
}

type WebError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func ErrorMsg(code, message string) *WebMessage {
	return &WebMessage{Typ: EVT_ERROR, Err: &WebError{Code: code, Message: message}}
}
