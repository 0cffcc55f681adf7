package processing

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a lifecycle change published after commit.
type EventType string

const (
	EventCreated   EventType = "process_request.created"
	EventClaimed   EventType = "process_request.claimed"
	EventRevoked   EventType = "process_request.revoked"
	EventErrored   EventType = "process_request.errored"
	EventCompleted EventType = "process_request.completed"
	EventExpired   EventType = "process_request.expired"
	EventDeleted   EventType = "process_request.deleted"
)

// EventForTransition maps a successful transition to the event it emits.
// Heartbeats are not published.
func EventForTransition(t Transition) (EventType, bool) {
	switch t {
	case TransitionClaim:
		return EventClaimed, true
	case TransitionRevoke:
		return EventRevoked, true
	case TransitionReportError:
		return EventErrored, true
	case TransitionComplete:
		return EventCompleted, true
	case TransitionExpire:
		return EventExpired, true
	}
	return "", false
}

type ProcessRequestEvent struct {
	Type             EventType  `json:"type"`
	ProcessRequestID uuid.UUID  `json:"process_request_id"`
	ProjectID        uuid.UUID  `json:"project_id"`
	WorkerID         *uuid.UUID `json:"worker_id,omitempty"`
	Status           Status     `json:"status"`
	At               time.Time  `json:"at"`
}

// NewEvent snapshots pr into an event of type typ.
func NewEvent(typ EventType, pr *ProcessRequest) ProcessRequestEvent {
	ev := ProcessRequestEvent{Type: typ, At: time.Now().UTC()}
	if pr != nil {
		ev.ProcessRequestID = pr.ID
		ev.ProjectID = pr.ProjectID
		ev.WorkerID = pr.WorkerID
		ev.Status = pr.Status
	}
	return ev
}
