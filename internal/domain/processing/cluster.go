package processing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Cluster is one output group a worker discovered for a process request.
type Cluster struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProcessRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cluster_request_index,priority:1" json:"process_request_id"`
	Index            int       `gorm:"column:cluster_index;not null;uniqueIndex:idx_cluster_request_index,priority:2" json:"index"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (Cluster) TableName() string { return "cluster" }

func (c *Cluster) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ClusterLabel tags a cluster with a project-scoped CellSubsetLabel.
type ClusterLabel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClusterID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cluster_label_pair,priority:1" json:"cluster_id"`
	LabelID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cluster_label_pair,priority:2;index" json:"label_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ClusterLabel) TableName() string { return "cluster_label" }

func (l *ClusterLabel) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// SampleCluster is a cluster instantiated against one sample. EventsKey points
// at the event-index blob in object storage.
type SampleCluster struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClusterID  uuid.UUID `gorm:"type:uuid;not null;index" json:"cluster_id"`
	SampleID   uuid.UUID `gorm:"type:uuid;not null;index" json:"sample_id"`
	EventsKey  string    `gorm:"column:events_key;not null" json:"events_key"`
	EventCount int       `gorm:"column:event_count;not null;default:0" json:"event_count"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (SampleCluster) TableName() string { return "sample_cluster" }

func (s *SampleCluster) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SampleClusterParameter is the centroid coordinate of a sample cluster on one channel.
type SampleClusterParameter struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SampleClusterID uuid.UUID `gorm:"type:uuid;not null;index" json:"sample_cluster_id"`
	Channel         int       `gorm:"column:channel;not null" json:"channel"`
	Location        float64   `gorm:"column:location;not null" json:"location"`
}

func (SampleClusterParameter) TableName() string { return "sample_cluster_parameter" }

func (p *SampleClusterParameter) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// SampleClusterComponent is one gaussian mixture component of a sample cluster.
// Covariance is stored exactly as the worker sent it.
type SampleClusterComponent struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SampleClusterID uuid.UUID      `gorm:"type:uuid;not null;index" json:"sample_cluster_id"`
	Covariance      datatypes.JSON `gorm:"column:covariance;not null" json:"covariance"`
	Weight          float64        `gorm:"column:weight;not null" json:"weight"`
}

func (SampleClusterComponent) TableName() string { return "sample_cluster_component" }

func (c *SampleClusterComponent) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type SampleClusterComponentParameter struct {
	ID                       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SampleClusterComponentID uuid.UUID `gorm:"type:uuid;not null;index" json:"sample_cluster_component_id"`
	Channel                  int       `gorm:"column:channel;not null" json:"channel"`
	Location                 float64   `gorm:"column:location;not null" json:"location"`
}

func (SampleClusterComponentParameter) TableName() string {
	return "sample_cluster_component_parameter"
}

func (p *SampleClusterComponentParameter) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
