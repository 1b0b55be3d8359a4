package protocol

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wirelive/multihost-service/internal/domain"
)

var (
	local  = domain.Role{UserID: "owner-1", Name: "Olga", Kind: domain.RoleOwner}
	remote = domain.Role{UserID: "user-a", Name: "Alice", Kind: domain.RoleAudience}
)

func frame(t *testing.T, cmd, typ, seat, processID int, from domain.Role) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"cmd": cmd,
		"data": map[string]interface{}{
			"type":      typ,
			"no":        seat,
			"processId": processID,
			"fromUser":  from,
		},
	})
	require.NoError(t, err)
	return raw
}

func TestNewSeatRequest_CarriesWireCodes(t *testing.T) {
	cases := []struct {
		action Action
		code   int
	}{
		{ActionInvite, 1},
		{ActionApply, 2},
		{ActionOwnerReject, 3},
		{ActionAudienceReject, 4},
		{ActionOwnerAccept, 5},
		{ActionAudienceAccept, 6},
		{ActionForceEnd, 7},
		{ActionEnd, 8},
	}

	for _, tc := range cases {
		req := NewSeatRequest(tc.action, 3)
		require.Equal(t, tc.code, req.Type, "action %s", tc.action)
		require.Equal(t, 3, req.SeatIndex)
	}
}

func TestDecode_ReceivedInvitation_RemoteInitiates(t *testing.T) {
	audience := domain.Role{UserID: "user-a", Name: "Alice", Kind: domain.RoleAudience}
	owner := domain.Role{UserID: "owner-1", Name: "Olga", Kind: domain.RoleOwner}

	in, err := Decode(frame(t, CommandMultiHosts, 1, 2, 101, owner), audience)
	require.NoError(t, err)
	require.Equal(t, EventReceivedInvitation, in.Kind)
	require.Equal(t, 101, in.Invitation.ID)
	require.Equal(t, 2, in.Invitation.SeatIndex)
	require.Equal(t, owner.UserID, in.Invitation.Initiator.UserID)
	require.Equal(t, audience.UserID, in.Invitation.Receiver.UserID)
}

func TestDecode_ReceivedApplication_RemoteInitiates(t *testing.T) {
	in, err := Decode(frame(t, CommandMultiHosts, 2, 3, 55, remote), local)
	require.NoError(t, err)
	require.Equal(t, EventReceivedApplication, in.Kind)
	require.Equal(t, 55, in.Application.ID)
	require.Equal(t, remote.UserID, in.Application.Initiator.UserID)
	require.Equal(t, local.UserID, in.Application.Receiver.UserID)
}

func TestDecode_Responses_LocalInitiates(t *testing.T) {
	cases := []struct {
		typ  int
		kind EventKind
	}{
		{3, EventApplicationRejected},
		{4, EventInvitationRejected},
		{5, EventApplicationAccepted},
		{6, EventInvitationAccepted},
	}

	for _, tc := range cases {
		in, err := Decode(frame(t, CommandMultiHosts, tc.typ, 2, 101, remote), local)
		require.NoError(t, err)
		require.Equal(t, tc.kind, in.Kind)

		switch tc.kind {
		case EventInvitationRejected, EventInvitationAccepted:
			require.Equal(t, local.UserID, in.Invitation.Initiator.UserID)
			require.Equal(t, remote.UserID, in.Invitation.Receiver.UserID)
		default:
			require.Equal(t, local.UserID, in.Application.Initiator.UserID)
			require.Equal(t, remote.UserID, in.Application.Receiver.UserID)
		}
	}
}

func TestDecode_ForceEnd_NoPayload(t *testing.T) {
	in, err := Decode(frame(t, CommandMultiHosts, 7, 2, 0, remote), local)
	require.NoError(t, err)
	require.Equal(t, EventEndBroadcasting, in.Kind)
	require.Zero(t, in.Invitation.ID)
	require.Zero(t, in.Application.ID)
}

func TestDecode_ForeignCommand(t *testing.T) {
	_, err := Decode(frame(t, 99, 1, 2, 101, remote), local)
	require.ErrorIs(t, err, ErrForeignCommand)
}

func TestDecode_MissingField_Malformed(t *testing.T) {
	raw := []byte(fmt.Sprintf(`{"cmd":%d,"data":{"type":1,"no":2}}`, CommandMultiHosts))
	_, err := Decode(raw, local)
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDecode_Garbage_Malformed(t *testing.T) {
	_, err := Decode([]byte(`{"cmd":`), local)
	require.ErrorIs(t, err, ErrMalformedMessage)

	raw := []byte(fmt.Sprintf(`{"cmd":%d,"data":"nope"}`, CommandMultiHosts))
	_, err = Decode(raw, local)
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDecode_UnknownType_ProtocolViolation(t *testing.T) {
	_, err := Decode(frame(t, CommandMultiHosts, 42, 2, 101, remote), local)
	require.ErrorIs(t, err, ErrUnknownActionType)
}
