package auth

import "github.com/google/uuid"

// Role is the capability class of an authenticated caller. It is resolved once
// per request; handlers and services switch on it instead of probing for a
// worker profile.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
	// RoleSystem is used by in-process maintenance loops, never by HTTP callers.
	RoleSystem Role = "system"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     Role
	// WorkerID is set iff Role == RoleWorker.
	WorkerID uuid.UUID
}

func (p *Principal) IsWorker() bool {
	return p != nil && p.Role == RoleWorker && p.WorkerID != uuid.Nil
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Anonymous reports whether no user could be resolved.
func (p *Principal) Anonymous() bool {
	return p == nil || p.UserID == uuid.Nil
}

// System returns the principal maintenance loops act as.
func System() *Principal {
	return &Principal{Role: RoleSystem, Username: "system"}
}
