package audit

import (
	"context"

	"github.com/wirelive/multihost-service/pkg/log"
)

// Audit actions for seat negotiation.
const (
	ActionInvite            = "seat.invite"
	ActionApply             = "seat.apply"
	ActionAcceptApplication = "seat.application.accept"
	ActionRejectApplication = "seat.application.reject"
	ActionAcceptInvitation  = "seat.invitation.accept"
	ActionRejectInvitation  = "seat.invitation.reject"
	ActionForceEnd          = "seat.force_end"
	ActionEnd               = "seat.end"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID string, seat int, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Int(log.FieldSeat, seat).
		Msg(msg)
}
