package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wirelive/multihost-service/internal/coordinator"
	"github.com/wirelive/multihost-service/internal/domain"
	"github.com/wirelive/multihost-service/internal/queue"
	"github.com/wirelive/multihost-service/pkg/log"
	"github.com/wirelive/multihost-service/pkg/response"
)

// Handler exposes the seat negotiation surface of one room over HTTP.
type Handler struct {
	coord coordinator.Coordinator
	local domain.Role
}

// NewHandler creates a new HTTP handler acting as local.
func NewHandler(coord coordinator.Coordinator, local domain.Role) *Handler {
	return &Handler{
		coord: coord,
		local: local,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/multihost")
	{
		invitations := api.Group("/invitations")
		{
			invitations.POST("", h.SendInvitation)
			invitations.POST("/:id/accept", h.AcceptInvitation)
			invitations.POST("/:id/reject", h.RejectInvitation)
		}

		applications := api.Group("/applications")
		{
			applications.POST("", h.SendApplication)
			applications.POST("/:id/accept", h.AcceptApplication)
			applications.POST("/:id/reject", h.RejectApplication)
		}

		seats := api.Group("/seats")
		{
			seats.POST("/:no/force-end", h.ForceEndBroadcasting)
			seats.POST("/:no/end", h.EndBroadcasting)
		}

		api.GET("/inviting", h.InvitingUsers)
		api.GET("/applying", h.ApplyingUsers)
	}
}

type inviteRequest struct {
	User      domain.Role `json:"user" binding:"required"`
	SeatIndex int         `json:"no"`
}

type applyRequest struct {
	SeatIndex int `json:"no"`
}

// invitationDecisionRequest carries the invitation the audience member is
// resolving. The invitation lives in the inviter's queue, so the audience
// side reconstructs it from the request.
type invitationDecisionRequest struct {
	SeatIndex int         `json:"no"`
	FromUser  domain.Role `json:"fromUser" binding:"required"`
}

type forceEndRequest struct {
	User domain.Role `json:"user" binding:"required"`
}

// SendInvitation invites a user to a seat (owner only).
func (h *Handler) SendInvitation(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind invite request")
		response.BadRequest(c, err.Error())
		return
	}

	invitation, err := h.coord.SendInvitation(ctx, req.User, req.SeatIndex)
	if err != nil {
		if errors.Is(err, queue.ErrDuplicateEntry) {
			response.Conflict(c, "an invitation with this id is already pending")
			return
		}
		l.Error().Err(err).Str(log.FieldUserID, req.User.UserID).Msg("failed to send invitation")
		response.BadGateway(c, "failed to send invitation")
		return
	}

	response.Created(c, invitation)
}

// AcceptInvitation accepts a received invitation (audience side).
func (h *Handler) AcceptInvitation(c *gin.Context) {
	h.resolveInvitation(c, h.coord.AcceptInvitation, "failed to accept invitation")
}

// RejectInvitation declines a received invitation (audience side).
func (h *Handler) RejectInvitation(c *gin.Context) {
	h.resolveInvitation(c, h.coord.RejectInvitation, "failed to reject invitation")
}

// SendApplication applies for a seat (audience side).
func (h *Handler) SendApplication(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind apply request")
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.coord.SendApplication(ctx, req.SeatIndex); err != nil {
		l.Error().Err(err).Int(log.FieldSeat, req.SeatIndex).Msg("failed to send application")
		response.BadGateway(c, "failed to send application")
		return
	}

	response.Success(c, nil)
}

// AcceptApplication accepts a pending application (owner only).
func (h *Handler) AcceptApplication(c *gin.Context) {
	h.resolveApplication(c, h.coord.AcceptApplication, "failed to accept application")
}

// RejectApplication rejects a pending application (owner only).
func (h *Handler) RejectApplication(c *gin.Context) {
	h.resolveApplication(c, h.coord.RejectApplication, "failed to reject application")
}

// ForceEndBroadcasting forces a broadcaster off a seat (owner only).
func (h *Handler) ForceEndBroadcasting(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	seat, ok := seatParam(c)
	if !ok {
		return
	}

	var req forceEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind force-end request")
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.coord.ForceEndBroadcasting(ctx, req.User, seat); err != nil {
		l.Error().Err(err).Int(log.FieldSeat, seat).Msg("failed to force end broadcast")
		response.BadGateway(c, "failed to force end broadcast")
		return
	}

	response.Success(c, nil)
}

// EndBroadcasting ends the local participant's own broadcast.
func (h *Handler) EndBroadcasting(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	seat, ok := seatParam(c)
	if !ok {
		return
	}

	if err := h.coord.EndBroadcasting(ctx, seat); err != nil {
		l.Error().Err(err).Int(log.FieldSeat, seat).Msg("failed to end broadcast")
		response.BadGateway(c, "failed to end broadcast")
		return
	}

	response.Success(c, nil)
}

// InvitingUsers lists users with a pending invitation, oldest first.
func (h *Handler) InvitingUsers(c *gin.Context) {
	response.Success(c, h.coord.InvitingUsers())
}

// ApplyingUsers lists users with a pending application, oldest first.
func (h *Handler) ApplyingUsers(c *gin.Context) {
	response.Success(c, h.coord.ApplyingUsers())
}

func (h *Handler) resolveInvitation(c *gin.Context, resolve func(context.Context, domain.Invitation) error, failMsg string) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid process id")
		return
	}

	var req invitationDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind invitation decision request")
		response.BadRequest(c, err.Error())
		return
	}

	invitation := domain.NewInvitation(id, req.SeatIndex, req.FromUser, h.local)
	if err := resolve(ctx, invitation); err != nil {
		l.Error().Err(err).Int(log.FieldProcessID, id).Msg(failMsg)
		response.BadGateway(c, failMsg)
		return
	}

	response.Success(c, nil)
}

func (h *Handler) resolveApplication(c *gin.Context, resolve func(context.Context, domain.Application) error, failMsg string) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid process id")
		return
	}

	application, ok := h.coord.FindApplication(id)
	if !ok {
		response.NotFound(c, "application not found")
		return
	}

	if err := resolve(ctx, application); err != nil {
		l.Error().Err(err).Int(log.FieldProcessID, id).Msg(failMsg)
		response.BadGateway(c, failMsg)
		return
	}

	response.Success(c, nil)
}

func seatParam(c *gin.Context) (int, bool) {
	seat, err := strconv.Atoi(c.Param("no"))
	if err != nil {
		response.BadRequest(c, "invalid seat index")
		return 0, false
	}
	return seat, true
}
