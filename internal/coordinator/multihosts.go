package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wirelive/multihost-service/internal/audit"
	"github.com/wirelive/multihost-service/internal/domain"
	"github.com/wirelive/multihost-service/internal/protocol"
	"github.com/wirelive/multihost-service/internal/queue"
	pkglog "github.com/wirelive/multihost-service/pkg/log"
)

const streamBuffer = 32

type multiHosts struct {
	roomID string
	local  domain.Role
	owner  domain.Role

	requests  RequestClient
	messaging MessagingClient
	logger    zerolog.Logger

	invitations  *queue.TimestampQueue
	applications *queue.TimestampQueue

	mu         sync.Mutex
	notifSubs  map[string]chan protocol.Inbound
	inviteSubs map[string]chan []domain.Role
	applySubs  map[string]chan []domain.Role

	observerID string
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// New creates the coordinator for one room and registers it as a peer
// message observer. owner is the room owner's role; local is the
// participant this instance acts for (for the owner's own instance the two
// are the same). Call Close when the room session ends.
func New(roomID string, local, owner domain.Role, requests RequestClient, messaging MessagingClient, logger zerolog.Logger) Coordinator {
	m := &multiHosts{
		roomID:       roomID,
		local:        local,
		owner:        owner,
		requests:     requests,
		messaging:    messaging,
		logger:       logger.With().Str(pkglog.FieldRoomID, roomID).Logger(),
		invitations:  queue.New("multi-hosts-invitation"),
		applications: queue.New("multi-hosts-application"),
		notifSubs:    make(map[string]chan protocol.Inbound),
		inviteSubs:   make(map[string]chan []domain.Role),
		applySubs:    make(map[string]chan []domain.Role),
	}

	// Subscribe before spawning so no mutation made after New returns can
	// precede the projection subscriptions.
	_, invitationSnaps := m.invitations.Subscribe()
	_, applicationSnaps := m.applications.Subscribe()

	m.wg.Add(2)
	go m.projectInvitations(invitationSnaps)
	go m.projectApplications(applicationSnaps)

	m.observerID = messaging.AddPeerObserver(m.handlePeerMessage)
	return m
}

// Owner actions.

func (m *multiHosts) SendInvitation(ctx context.Context, user domain.Role, seatIndex int) (domain.Invitation, error) {
	id, err := m.requests.Send(ctx, protocol.ActionInvite, seatIndex, user.UserID, m.roomID)
	if err != nil {
		return domain.Invitation{}, err
	}

	invitation := domain.NewInvitation(id, seatIndex, m.owner, user)
	if err := m.invitations.Append(invitation); err != nil {
		m.logger.Warn().
			Int(pkglog.FieldProcessID, id).
			Str(pkglog.FieldUserID, user.UserID).
			Msg("invitation id already pending")
		return invitation, fmt.Errorf("invite user %s: %w", user.UserID, err)
	}

	audit.Log(ctx, audit.ActionInvite, user.UserID, seatIndex, "invitation sent")
	return invitation, nil
}

func (m *multiHosts) AcceptApplication(ctx context.Context, application domain.Application) error {
	_, err := m.requests.Send(ctx, protocol.ActionOwnerAccept, application.SeatIndex, application.Initiator.UserID, m.roomID)
	if err != nil {
		return err
	}

	m.applications.Remove(application)
	audit.Log(ctx, audit.ActionAcceptApplication, application.Initiator.UserID, application.SeatIndex, "application accepted")
	return nil
}

func (m *multiHosts) RejectApplication(ctx context.Context, application domain.Application) error {
	_, err := m.requests.Send(ctx, protocol.ActionOwnerReject, application.SeatIndex, application.Initiator.UserID, m.roomID)
	if err != nil {
		return err
	}

	m.applications.Remove(application)
	audit.Log(ctx, audit.ActionRejectApplication, application.Initiator.UserID, application.SeatIndex, "application rejected")
	return nil
}

func (m *multiHosts) ForceEndBroadcasting(ctx context.Context, user domain.Role, seatIndex int) error {
	_, err := m.requests.Send(ctx, protocol.ActionForceEnd, seatIndex, user.UserID, m.roomID)
	if err != nil {
		return err
	}

	audit.Log(ctx, audit.ActionForceEnd, user.UserID, seatIndex, "broadcaster forced off seat")
	return nil
}

// Broadcaster actions.

func (m *multiHosts) EndBroadcasting(ctx context.Context, seatIndex int) error {
	_, err := m.requests.Send(ctx, protocol.ActionEnd, seatIndex, m.local.UserID, m.roomID)
	if err != nil {
		return err
	}

	audit.Log(ctx, audit.ActionEnd, m.local.UserID, seatIndex, "broadcast ended")
	return nil
}

// Audience actions.

func (m *multiHosts) SendApplication(ctx context.Context, seatIndex int) error {
	_, err := m.requests.Send(ctx, protocol.ActionApply, seatIndex, m.owner.UserID, m.roomID)
	if err != nil {
		return err
	}

	audit.Log(ctx, audit.ActionApply, m.local.UserID, seatIndex, "application sent")
	return nil
}

func (m *multiHosts) AcceptInvitation(ctx context.Context, invitation domain.Invitation) error {
	_, err := m.requests.Send(ctx, protocol.ActionAudienceAccept, invitation.SeatIndex, invitation.Initiator.UserID, m.roomID)
	if err != nil {
		return err
	}

	audit.Log(ctx, audit.ActionAcceptInvitation, m.local.UserID, invitation.SeatIndex, "invitation accepted")
	return nil
}

func (m *multiHosts) RejectInvitation(ctx context.Context, invitation domain.Invitation) error {
	_, err := m.requests.Send(ctx, protocol.ActionAudienceReject, invitation.SeatIndex, invitation.Initiator.UserID, m.roomID)
	if err != nil {
		return err
	}

	audit.Log(ctx, audit.ActionRejectInvitation, m.local.UserID, invitation.SeatIndex, "invitation rejected")
	return nil
}

// Projections.

func (m *multiHosts) InvitingUsers() []domain.Role {
	return invitationReceivers(m.invitations.Entries())
}

func (m *multiHosts) ApplyingUsers() []domain.Role {
	return applicationInitiators(m.applications.Entries())
}

func (m *multiHosts) FindApplication(id int) (domain.Application, bool) {
	entry, ok := m.applications.Find(domain.EntryApplication, id)
	if !ok {
		return domain.Application{}, false
	}
	return entry.(domain.Application), true
}

func (m *multiHosts) FindInvitation(id int) (domain.Invitation, bool) {
	entry, ok := m.invitations.Find(domain.EntryInvitation, id)
	if !ok {
		return domain.Invitation{}, false
	}
	return entry.(domain.Invitation), true
}

// Streams.

func (m *multiHosts) SubscribeNotifications() (string, <-chan protocol.Inbound) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan protocol.Inbound, streamBuffer)
	m.notifSubs[id] = ch
	return id, ch
}

func (m *multiHosts) SubscribeInvitingUsers() (string, <-chan []domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan []domain.Role, streamBuffer)
	m.inviteSubs[id] = ch
	return id, ch
}

func (m *multiHosts) SubscribeApplyingUsers() (string, <-chan []domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan []domain.Role, streamBuffer)
	m.applySubs[id] = ch
	return id, ch
}

func (m *multiHosts) Unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ch, ok := m.notifSubs[id]; ok {
		delete(m.notifSubs, id)
		close(ch)
		return
	}
	if ch, ok := m.inviteSubs[id]; ok {
		delete(m.inviteSubs, id)
		close(ch)
		return
	}
	if ch, ok := m.applySubs[id]; ok {
		delete(m.applySubs, id)
		close(ch)
	}
}

func (m *multiHosts) Close() error {
	m.closeOnce.Do(func() {
		m.messaging.RemovePeerObserver(m.observerID)

		// Closing the queues ends the projection goroutines.
		m.invitations.Close()
		m.applications.Close()
		m.wg.Wait()

		m.mu.Lock()
		for id, ch := range m.notifSubs {
			delete(m.notifSubs, id)
			close(ch)
		}
		for id, ch := range m.inviteSubs {
			delete(m.inviteSubs, id)
			close(ch)
		}
		for id, ch := range m.applySubs {
			delete(m.applySubs, id)
			close(ch)
		}
		m.mu.Unlock()
	})
	return nil
}

// handlePeerMessage is the peer-message observer. Malformed frames and
// frames of other features are dropped; an unknown type code on a
// well-formed frame is a protocol violation and is logged without touching
// any queue.
func (m *multiHosts) handlePeerMessage(frame []byte) {
	inbound, err := protocol.Decode(frame, m.local)
	switch {
	case errors.Is(err, protocol.ErrForeignCommand):
		return
	case errors.Is(err, protocol.ErrMalformedMessage):
		m.logger.Debug().Err(err).Msg("dropping malformed peer frame")
		return
	case errors.Is(err, protocol.ErrUnknownActionType):
		m.logger.Error().Err(err).Msg("seat signal protocol violation")
		return
	case err != nil:
		m.logger.Error().Err(err).Msg("peer frame decode failed")
		return
	}

	switch inbound.Kind {
	case protocol.EventReceivedApplication:
		if err := m.applications.Append(inbound.Application); err != nil {
			m.logger.Warn().
				Int(pkglog.FieldProcessID, inbound.Application.ID).
				Msg("application id already pending")
		}
	case protocol.EventInvitationRejected, protocol.EventInvitationAccepted:
		// The audience member resolved the invitation remotely; retract
		// the pending entry so the inviting list stays truthful.
		m.invitations.RemoveByID(domain.EntryInvitation, inbound.Invitation.ID)
	}

	m.publish(inbound)
}

func (m *multiHosts) publish(inbound protocol.Inbound) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.notifSubs {
		select {
		case ch <- inbound:
		default:
			m.logger.Warn().Str(audit.FieldAction, inbound.Kind.String()).Msg("notification subscriber lagging, dropping event")
		}
	}
}

func (m *multiHosts) projectInvitations(snapshots <-chan []domain.PendingEntry) {
	defer m.wg.Done()

	for snap := range snapshots {
		m.fanOutInviting(invitationReceivers(snap))
	}
}

func (m *multiHosts) projectApplications(snapshots <-chan []domain.PendingEntry) {
	defer m.wg.Done()

	for snap := range snapshots {
		m.fanOutApplying(applicationInitiators(snap))
	}
}

func (m *multiHosts) fanOutInviting(users []domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.inviteSubs {
		select {
		case ch <- users:
		default:
		}
	}
}

func (m *multiHosts) fanOutApplying(users []domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.applySubs {
		select {
		case ch <- users:
		default:
		}
	}
}

func invitationReceivers(entries []domain.PendingEntry) []domain.Role {
	users := make([]domain.Role, 0, len(entries))
	for _, entry := range entries {
		if inv, ok := entry.(domain.Invitation); ok {
			users = append(users, inv.Receiver)
		}
	}
	return users
}

func applicationInitiators(entries []domain.PendingEntry) []domain.Role {
	users := make([]domain.Role, 0, len(entries))
	for _, entry := range entries {
		if app, ok := entry.(domain.Application); ok {
			users = append(users, app.Initiator)
		}
	}
	return users
}
