package domain

import "time"

// AuditLog represents an audit event.
type AuditLog struct {
	ID        string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Actions recorded by the auth and user modules.
const (
	ActionRegister         = "register"
	ActionLogin            = "login"
	ActionLoginFailure     = "login_failure"
	ActionRefresh          = "refresh"
	ActionReplayRevocation = "replay_revocation"
	ActionLogout           = "logout"
	ActionLogoutSingle     = "logout_single"
	ActionPasswordChange   = "password_change"
	ActionPasswordReset    = "password_reset"
)
