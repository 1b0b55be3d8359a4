package domain

import "encoding/json"

// Wire shapes shared between the peer-messaging transport and the room
// service HTTP API.

// PeerMessage is the envelope of a real-time message exchanged between
// room participants. The cmd tag routes the message to a feature; payloads
// of foreign features are ignored by this service.
type PeerMessage struct {
	Cmd  int             `json:"cmd"`
	Data json.RawMessage `json:"data"`
}

// SeatSignal is the multi-hosts payload of a peer message. All fields are
// required; pointers distinguish absent fields from zero values.
type SeatSignal struct {
	Type      *int  `json:"type"`
	SeatIndex *int  `json:"no"`
	ProcessID *int  `json:"processId"`
	FromUser  *Role `json:"fromUser"`
}

// SeatRequest is the outbound request body for a seat negotiation action.
type SeatRequest struct {
	SeatIndex int `json:"no"`
	Type      int `json:"type"`
}
