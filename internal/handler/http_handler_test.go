package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/wirelive/multihost-service/internal/domain"
	"github.com/wirelive/multihost-service/internal/protocol"
	"github.com/wirelive/multihost-service/internal/queue"
)

type fakeCoordinator struct {
	sendErr      error
	invitation   domain.Invitation
	applications map[int]domain.Application
	resolved     []string
	inviting     []domain.Role
	applying     []domain.Role
}

func (f *fakeCoordinator) SendInvitation(_ context.Context, user domain.Role, seatIndex int) (domain.Invitation, error) {
	if f.sendErr != nil {
		return domain.Invitation{}, f.sendErr
	}
	f.invitation = domain.NewInvitation(101, seatIndex, domain.Role{UserID: "owner-1"}, user)
	return f.invitation, nil
}

func (f *fakeCoordinator) AcceptApplication(_ context.Context, application domain.Application) error {
	f.resolved = append(f.resolved, fmt.Sprintf("accept-application:%d", application.ID))
	return f.sendErr
}

func (f *fakeCoordinator) RejectApplication(_ context.Context, application domain.Application) error {
	f.resolved = append(f.resolved, fmt.Sprintf("reject-application:%d", application.ID))
	return f.sendErr
}

func (f *fakeCoordinator) ForceEndBroadcasting(_ context.Context, user domain.Role, seatIndex int) error {
	f.resolved = append(f.resolved, fmt.Sprintf("force-end:%s:%d", user.UserID, seatIndex))
	return f.sendErr
}

func (f *fakeCoordinator) EndBroadcasting(_ context.Context, seatIndex int) error {
	f.resolved = append(f.resolved, fmt.Sprintf("end:%d", seatIndex))
	return f.sendErr
}

func (f *fakeCoordinator) SendApplication(_ context.Context, seatIndex int) error {
	f.resolved = append(f.resolved, fmt.Sprintf("apply:%d", seatIndex))
	return f.sendErr
}

func (f *fakeCoordinator) AcceptInvitation(_ context.Context, invitation domain.Invitation) error {
	f.resolved = append(f.resolved, fmt.Sprintf("accept-invitation:%d:%s", invitation.ID, invitation.Initiator.UserID))
	return f.sendErr
}

func (f *fakeCoordinator) RejectInvitation(_ context.Context, invitation domain.Invitation) error {
	f.resolved = append(f.resolved, fmt.Sprintf("reject-invitation:%d:%s", invitation.ID, invitation.Initiator.UserID))
	return f.sendErr
}

func (f *fakeCoordinator) InvitingUsers() []domain.Role { return f.inviting }
func (f *fakeCoordinator) ApplyingUsers() []domain.Role { return f.applying }

func (f *fakeCoordinator) FindApplication(id int) (domain.Application, bool) {
	app, ok := f.applications[id]
	return app, ok
}

func (f *fakeCoordinator) FindInvitation(int) (domain.Invitation, bool) {
	return domain.Invitation{}, false
}

func (f *fakeCoordinator) SubscribeNotifications() (string, <-chan protocol.Inbound) { return "", nil }
func (f *fakeCoordinator) SubscribeInvitingUsers() (string, <-chan []domain.Role)   { return "", nil }
func (f *fakeCoordinator) SubscribeApplyingUsers() (string, <-chan []domain.Role)   { return "", nil }
func (f *fakeCoordinator) Unsubscribe(string)                                       {}
func (f *fakeCoordinator) Close() error                                             { return nil }

func setupRouter(coord *fakeCoordinator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	local := domain.Role{UserID: "user-a", Name: "Alice", Kind: domain.RoleAudience}
	NewHandler(coord, local).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_SendInvitation(t *testing.T) {
	coord := &fakeCoordinator{}
	r := setupRouter(coord)

	w := doJSON(t, r, "POST", "/api/v1/multihost/invitations",
		`{"user": {"userId": "user-b", "userName": "Bob", "type": 3}, "no": 2}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"success":true`)
	require.Equal(t, 101, coord.invitation.ID)
	require.Equal(t, 2, coord.invitation.SeatIndex)
	require.Equal(t, "user-b", coord.invitation.Receiver.UserID)
}

func TestHandler_SendInvitation_BadBody(t *testing.T) {
	r := setupRouter(&fakeCoordinator{})

	w := doJSON(t, r, "POST", "/api/v1/multihost/invitations", `{"no":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_SendInvitation_Duplicate(t *testing.T) {
	coord := &fakeCoordinator{sendErr: fmt.Errorf("invite user user-b: %w", queue.ErrDuplicateEntry)}
	r := setupRouter(coord)

	w := doJSON(t, r, "POST", "/api/v1/multihost/invitations",
		`{"user": {"userId": "user-b", "userName": "Bob", "type": 3}, "no": 2}`)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_SendInvitation_UpstreamFailure(t *testing.T) {
	coord := &fakeCoordinator{sendErr: errors.New("room service unavailable")}
	r := setupRouter(coord)

	w := doJSON(t, r, "POST", "/api/v1/multihost/invitations",
		`{"user": {"userId": "user-b", "userName": "Bob", "type": 3}, "no": 2}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandler_AcceptInvitation_ReconstructsFromBody(t *testing.T) {
	coord := &fakeCoordinator{}
	r := setupRouter(coord)

	w := doJSON(t, r, "POST", "/api/v1/multihost/invitations/101/accept",
		`{"no": 2, "fromUser": {"userId": "owner-1", "userName": "Olga", "type": 1}}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"accept-invitation:101:owner-1"}, coord.resolved)
}

func TestHandler_RejectInvitation_BadProcessID(t *testing.T) {
	r := setupRouter(&fakeCoordinator{})

	w := doJSON(t, r, "POST", "/api/v1/multihost/invitations/not-a-number/reject",
		`{"no": 2, "fromUser": {"userId": "owner-1", "userName": "Olga", "type": 1}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_AcceptApplication_NotFound(t *testing.T) {
	coord := &fakeCoordinator{applications: map[int]domain.Application{}}
	r := setupRouter(coord)

	w := doJSON(t, r, "POST", "/api/v1/multihost/applications/55/accept", `{}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, coord.resolved)
}

func TestHandler_RejectApplication(t *testing.T) {
	audience := domain.Role{UserID: "user-b", Name: "Bob", Kind: domain.RoleAudience}
	coord := &fakeCoordinator{applications: map[int]domain.Application{
		55: domain.NewApplication(55, 3, audience, domain.Role{UserID: "owner-1"}),
	}}
	r := setupRouter(coord)

	w := doJSON(t, r, "POST", "/api/v1/multihost/applications/55/reject", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"reject-application:55"}, coord.resolved)
}

func TestHandler_SendApplication(t *testing.T) {
	coord := &fakeCoordinator{}
	r := setupRouter(coord)

	w := doJSON(t, r, "POST", "/api/v1/multihost/applications", `{"no": 3}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"apply:3"}, coord.resolved)
}

func TestHandler_ForceEnd(t *testing.T) {
	coord := &fakeCoordinator{}
	r := setupRouter(coord)

	w := doJSON(t, r, "POST", "/api/v1/multihost/seats/5/force-end",
		`{"user": {"userId": "user-b", "userName": "Bob", "type": 2}}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []string{"force-end:user-b:5"}, coord.resolved)
}

func TestHandler_End_BadSeat(t *testing.T) {
	r := setupRouter(&fakeCoordinator{})

	w := doJSON(t, r, "POST", "/api/v1/multihost/seats/front-row/end", ``)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Lists(t *testing.T) {
	coord := &fakeCoordinator{
		inviting: []domain.Role{{UserID: "user-b", Name: "Bob", Kind: domain.RoleAudience}},
		applying: []domain.Role{},
	}
	r := setupRouter(coord)

	w := doJSON(t, r, "GET", "/api/v1/multihost/inviting", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user-b"`)

	w = doJSON(t, r, "GET", "/api/v1/multihost/applying", "")
	require.Equal(t, http.StatusOK, w.Code)
}
