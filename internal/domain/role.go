package domain

// RoleKind is the mutually exclusive state a participant occupies in a
// room at a given time.
type RoleKind int

const (
	RoleOwner RoleKind = iota + 1
	RoleBroadcaster
	RoleAudience
)

// String returns the lowercase name of the role kind.
func (k RoleKind) String() string {
	switch k {
	case RoleOwner:
		return "owner"
	case RoleBroadcaster:
		return "broadcaster"
	case RoleAudience:
		return "audience"
	default:
		return "unknown"
	}
}

// ParseRoleKind maps a config/wire string to a RoleKind.
// Unrecognized values default to audience.
func ParseRoleKind(s string) RoleKind {
	switch s {
	case "owner":
		return RoleOwner
	case "broadcaster":
		return RoleBroadcaster
	default:
		return RoleAudience
	}
}

// Role identifies a room participant. The core compares roles by user id
// only; name and kind are carried along for display and routing.
type Role struct {
	UserID string   `json:"userId" mapstructure:"user_id"`
	Name   string   `json:"userName" mapstructure:"user_name"`
	Kind   RoleKind `json:"type" mapstructure:"-"`
}

// Equal reports whether two roles refer to the same participant.
func (r Role) Equal(other Role) bool {
	return r.UserID == other.UserID
}
