package domain

import "time"

// EntryKind distinguishes the two directions a pending seat request can take.
type EntryKind int

const (
	// EntryInvitation is a pending request from the room owner asking an
	// audience member to take a seat.
	EntryInvitation EntryKind = iota + 1
	// EntryApplication is a pending request from an audience member asking
	// the room owner for a seat.
	EntryApplication
)

func (k EntryKind) String() string {
	switch k {
	case EntryInvitation:
		return "invitation"
	case EntryApplication:
		return "application"
	default:
		return "unknown"
	}
}

// PendingEntry is a timestamped seat negotiation request awaiting
// resolution. Entries are identified by kind plus the process id the room
// service assigned on creation.
type PendingEntry interface {
	EntryID() int
	Kind() EntryKind
	Seat() int
	CreatedAt() time.Time
}

// Invitation is a pending request, owner -> audience, proposing a seat.
type Invitation struct {
	ID        int       `json:"id"`
	SeatIndex int       `json:"seatIndex"`
	Initiator Role      `json:"initiator"`
	Receiver  Role      `json:"receiver"`
	Timestamp time.Time `json:"timestamp"`
}

// NewInvitation creates an invitation stamped with the current time.
func NewInvitation(id, seatIndex int, initiator, receiver Role) Invitation {
	return Invitation{
		ID:        id,
		SeatIndex: seatIndex,
		Initiator: initiator,
		Receiver:  receiver,
		Timestamp: time.Now(),
	}
}

func (i Invitation) EntryID() int         { return i.ID }
func (i Invitation) Kind() EntryKind      { return EntryInvitation }
func (i Invitation) Seat() int            { return i.SeatIndex }
func (i Invitation) CreatedAt() time.Time { return i.Timestamp }

// Application is a pending request, audience -> owner, requesting a seat.
type Application struct {
	ID        int       `json:"id"`
	SeatIndex int       `json:"seatIndex"`
	Initiator Role      `json:"initiator"`
	Receiver  Role      `json:"receiver"`
	Timestamp time.Time `json:"timestamp"`
}

// NewApplication creates an application stamped with the current time.
func NewApplication(id, seatIndex int, initiator, receiver Role) Application {
	return Application{
		ID:        id,
		SeatIndex: seatIndex,
		Initiator: initiator,
		Receiver:  receiver,
		Timestamp: time.Now(),
	}
}

func (a Application) EntryID() int         { return a.ID }
func (a Application) Kind() EntryKind      { return EntryApplication }
func (a Application) Seat() int            { return a.SeatIndex }
func (a Application) CreatedAt() time.Time { return a.Timestamp }
