package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wirelive/multihost-service/internal/domain"
)

// Action is a seat negotiation request type on the wire. The numeric codes
// are the fixed contract with the room service and the counterpart clients;
// they must not be renumbered.
type Action int

const (
	// ActionInvite: owner invites an audience member to a seat.
	ActionInvite Action = 1
	// ActionApply: audience member applies for a seat.
	ActionApply Action = 2
	// ActionOwnerReject: owner rejects an application.
	ActionOwnerReject Action = 3
	// ActionAudienceReject: audience member rejects an invitation.
	ActionAudienceReject Action = 4
	// ActionOwnerAccept: owner accepts an application.
	ActionOwnerAccept Action = 5
	// ActionAudienceAccept: audience member accepts an invitation.
	ActionAudienceAccept Action = 6
	// ActionForceEnd: owner forces a broadcaster off a seat.
	ActionForceEnd Action = 7
	// ActionEnd: broadcaster ends their own broadcast.
	ActionEnd Action = 8
)

func (a Action) String() string {
	switch a {
	case ActionInvite:
		return "invite"
	case ActionApply:
		return "apply"
	case ActionOwnerReject:
		return "owner-reject"
	case ActionAudienceReject:
		return "audience-reject"
	case ActionOwnerAccept:
		return "owner-accept"
	case ActionAudienceAccept:
		return "audience-accept"
	case ActionForceEnd:
		return "force-end"
	case ActionEnd:
		return "end"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// CommandMultiHosts is the peer-message cmd tag of the multi-hosts feature.
// Frames with any other tag belong to other features and are ignored.
const CommandMultiHosts = 1

var (
	// ErrForeignCommand marks a well-formed peer frame addressed to another
	// feature.
	ErrForeignCommand = errors.New("protocol: foreign command tag")
	// ErrMalformedMessage marks a multi-hosts frame missing required fields
	// or carrying an unparseable payload. Such frames are dropped.
	ErrMalformedMessage = errors.New("protocol: malformed seat signal")
	// ErrUnknownActionType marks a well-formed frame whose type code is
	// outside the closed wire contract. This is a protocol violation.
	ErrUnknownActionType = errors.New("protocol: unknown seat signal type")
)

// EventKind classifies a correlated inbound seat signal.
type EventKind int

const (
	// EventReceivedInvitation: audience side, the owner invited us (type 1).
	EventReceivedInvitation EventKind = iota + 1
	// EventReceivedApplication: owner side, an audience member applied (type 2).
	EventReceivedApplication
	// EventApplicationRejected: audience side, the owner rejected our
	// application (type 3).
	EventApplicationRejected
	// EventInvitationRejected: owner side, the audience member rejected our
	// invitation (type 4). The matching pending invitation must be pruned.
	EventInvitationRejected
	// EventApplicationAccepted: audience side, the owner accepted our
	// application (type 5).
	EventApplicationAccepted
	// EventInvitationAccepted: owner side, the audience member accepted our
	// invitation (type 6). The matching pending invitation must be pruned.
	EventInvitationAccepted
	// EventEndBroadcasting: broadcaster side, the owner forced us off the
	// seat (type 7). Carries no entry payload.
	EventEndBroadcasting
)

func (k EventKind) String() string {
	switch k {
	case EventReceivedInvitation:
		return "received-invitation"
	case EventReceivedApplication:
		return "received-application"
	case EventApplicationRejected:
		return "application-rejected"
	case EventInvitationRejected:
		return "invitation-rejected"
	case EventApplicationAccepted:
		return "application-accepted"
	case EventInvitationAccepted:
		return "invitation-accepted"
	case EventEndBroadcasting:
		return "end-broadcasting"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Inbound is a decoded and correlated seat signal. Exactly one of
// Invitation or Application is set, except for EventEndBroadcasting which
// carries neither.
type Inbound struct {
	Kind        EventKind
	Invitation  domain.Invitation
	Application domain.Application
}

// NewSeatRequest builds the outbound HTTP body for an action.
func NewSeatRequest(action Action, seatIndex int) domain.SeatRequest {
	return domain.SeatRequest{SeatIndex: seatIndex, Type: int(action)}
}

// Decode parses a raw peer frame addressed to the multi-hosts feature and
// correlates it against the local participant's role.
//
// For types 1 and 2 the remote participant initiated the pending request;
// for types 3..6 the remote participant is responding to a request the
// local participant initiated, so the reconstructed entry has the local
// role as initiator.
func Decode(raw []byte, local domain.Role) (Inbound, error) {
	var msg domain.PeerMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Cmd != CommandMultiHosts {
		return Inbound{}, ErrForeignCommand
	}

	var sig domain.SeatSignal
	if err := json.Unmarshal(msg.Data, &sig); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if sig.Type == nil || sig.SeatIndex == nil || sig.ProcessID == nil || sig.FromUser == nil {
		return Inbound{}, fmt.Errorf("%w: missing required field", ErrMalformedMessage)
	}

	seat := *sig.SeatIndex
	id := *sig.ProcessID
	remote := *sig.FromUser

	switch Action(*sig.Type) {
	case ActionInvite:
		return Inbound{
			Kind:       EventReceivedInvitation,
			Invitation: domain.NewInvitation(id, seat, remote, local),
		}, nil
	case ActionApply:
		return Inbound{
			Kind:        EventReceivedApplication,
			Application: domain.NewApplication(id, seat, remote, local),
		}, nil
	case ActionOwnerReject:
		return Inbound{
			Kind:        EventApplicationRejected,
			Application: domain.NewApplication(id, seat, local, remote),
		}, nil
	case ActionAudienceReject:
		return Inbound{
			Kind:       EventInvitationRejected,
			Invitation: domain.NewInvitation(id, seat, local, remote),
		}, nil
	case ActionOwnerAccept:
		return Inbound{
			Kind:        EventApplicationAccepted,
			Application: domain.NewApplication(id, seat, local, remote),
		}, nil
	case ActionAudienceAccept:
		return Inbound{
			Kind:       EventInvitationAccepted,
			Invitation: domain.NewInvitation(id, seat, local, remote),
		}, nil
	case ActionForceEnd:
		return Inbound{Kind: EventEndBroadcasting}, nil
	default:
		return Inbound{}, fmt.Errorf("%w: type %d", ErrUnknownActionType, *sig.Type)
	}
}
