package coordinator

import (
	"context"

	"github.com/wirelive/multihost-service/internal/domain"
	"github.com/wirelive/multihost-service/internal/protocol"
)

// RequestClient performs one seat negotiation request against the room
// service. A returned error means the request did not succeed and nothing
// may change locally; the client decides internally whether to retry and
// resigns by returning the error. processID is the id the room service
// assigned to the created pending request, when the action creates one.
type RequestClient interface {
	Send(ctx context.Context, action protocol.Action, seatIndex int, counterpartID, roomID string) (processID int, err error)
}

// MessagingClient delivers raw inbound peer frames to registered observers.
// The returned token releases the observer again; the coordinator must
// remove its observer on Close or the messaging client keeps a dangling
// callback across room lifecycles.
type MessagingClient interface {
	AddPeerObserver(handler func(frame []byte)) string
	RemovePeerObserver(id string)
}

// Coordinator mediates the multi-host seat negotiation of one room for one
// local participant: it sends seat actions through the RequestClient,
// tracks pending invitations and applications, correlates inbound peer
// signals to them, and republishes everything as notifications and
// user-list projections.
type Coordinator interface {
	// Owner actions.

	// SendInvitation invites user to seatIndex. On success the created
	// invitation is pending until the audience member responds.
	SendInvitation(ctx context.Context, user domain.Role, seatIndex int) (domain.Invitation, error)
	// AcceptApplication grants the application's seat. On success the
	// application is no longer pending.
	AcceptApplication(ctx context.Context, application domain.Application) error
	// RejectApplication declines the application. On success the
	// application is no longer pending.
	RejectApplication(ctx context.Context, application domain.Application) error
	// ForceEndBroadcasting removes user from seatIndex.
	ForceEndBroadcasting(ctx context.Context, user domain.Role, seatIndex int) error

	// Broadcaster actions.

	// EndBroadcasting gives up the local participant's own seat.
	EndBroadcasting(ctx context.Context, seatIndex int) error

	// Audience actions.

	// SendApplication asks the room owner for seatIndex.
	SendApplication(ctx context.Context, seatIndex int) error
	// AcceptInvitation takes the invitation's seat. The owner's pending
	// entry is pruned remotely via the resulting peer signal.
	AcceptInvitation(ctx context.Context, invitation domain.Invitation) error
	// RejectInvitation declines the invitation.
	RejectInvitation(ctx context.Context, invitation domain.Invitation) error

	// Projections.

	// InvitingUsers returns the receivers of all pending invitations in
	// insertion order.
	InvitingUsers() []domain.Role
	// ApplyingUsers returns the initiators of all pending applications in
	// insertion order.
	ApplyingUsers() []domain.Role
	// FindApplication returns the pending application with the given id.
	FindApplication(id int) (domain.Application, bool)
	// FindInvitation returns the pending invitation with the given id.
	FindInvitation(id int) (domain.Invitation, bool)

	// Streams. Each Subscribe returns a token for Unsubscribe; channels are
	// closed on Unsubscribe and on Close.

	// SubscribeNotifications streams correlated inbound seat signals in
	// arrival order.
	SubscribeNotifications() (string, <-chan protocol.Inbound)
	// SubscribeInvitingUsers streams the inviting-user projection after
	// every invitation queue change.
	SubscribeInvitingUsers() (string, <-chan []domain.Role)
	// SubscribeApplyingUsers streams the applying-user projection after
	// every application queue change.
	SubscribeApplyingUsers() (string, <-chan []domain.Role)
	// Unsubscribe releases a subscription obtained from any Subscribe call.
	Unsubscribe(id string)

	// Close deregisters the peer-message observer and closes all
	// subscription channels. Idempotent.
	Close() error
}
