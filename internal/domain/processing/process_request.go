package processing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProcessRequest is one unit of analysis work submitted against a project and
// executed by an external worker.
type ProcessRequest struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	SampleCollectionID *uuid.UUID `gorm:"type:uuid;index" json:"sample_collection_id,omitempty"`
	// ParentStageID links a stage-2 request to the request it re-clusters.
	ParentStageID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_stage_id,omitempty"`
	SubsampleCount int        `gorm:"column:subsample_count;not null;default:0" json:"subsample_count"`
	Description    string     `gorm:"column:description;not null" json:"description"`
	RequestUserID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"request_user_id"`
	RequestDate    time.Time  `gorm:"column:request_date;not null;index" json:"request_date"`

	WorkerID        *uuid.UUID `gorm:"type:uuid;index" json:"worker_id,omitempty"`
	AssignmentDate  *time.Time `gorm:"column:assignment_date" json:"assignment_date,omitempty"`
	CompletionDate  *time.Time `gorm:"column:completion_date;index" json:"completion_date,omitempty"`
	HeartbeatAt     *time.Time `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	Status          Status     `gorm:"column:status;not null;index" json:"status"`
	StatusMessage   string     `gorm:"column:status_message" json:"status_message,omitempty"`
	PercentComplete int        `gorm:"column:percent_complete;not null;default:0" json:"percent_complete"`

	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProcessRequest) TableName() string { return "process_request" }

func (p *ProcessRequest) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.RequestDate.IsZero() {
		p.RequestDate = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	return nil
}

// Snapshot is the assignment state a transition is decided on.
func (p *ProcessRequest) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	return Snapshot{Status: p.Status, WorkerID: p.WorkerID}
}

// AssignedTo reports whether workerID is the current assignee.
func (p *ProcessRequest) AssignedTo(workerID uuid.UUID) bool {
	return p != nil && p.WorkerID != nil && workerID != uuid.Nil && *p.WorkerID == workerID
}

// ProcessRequestInput is one free-form parameter of a request, interpreted by
// the worker.
type ProcessRequestInput struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProcessRequestID  uuid.UUID `gorm:"type:uuid;not null;index" json:"process_request_id"`
	SubprocessInputID uuid.UUID `gorm:"type:uuid;not null;index" json:"subprocess_input_id"`
	Value             string    `gorm:"column:value;not null" json:"value"`
}

func (ProcessRequestInput) TableName() string { return "process_request_input" }

func (i *ProcessRequestInput) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ProcessRequestStage2Cluster links a stage-2 request to a first-stage cluster
// it was seeded from.
type ProcessRequestStage2Cluster struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProcessRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stage2_cluster,priority:1" json:"process_request_id"`
	ClusterID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stage2_cluster,priority:2;index" json:"cluster_id"`
}

func (ProcessRequestStage2Cluster) TableName() string { return "process_request_stage2_cluster" }

func (s *ProcessRequestStage2Cluster) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
