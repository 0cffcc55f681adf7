package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sample is one uploaded instrument file. The file payload itself is owned by
// the metadata side of the system; the job store only checks existence and project.
type Sample struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID        uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	OriginalFilename string    `gorm:"column:original_filename" json:"original_filename"`
	SHA1             string    `gorm:"column:sha1;index" json:"sha1"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (Sample) TableName() string { return "sample" }

func (s *Sample) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SampleCollection groups the samples a process request operates on.
type SampleCollection struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (SampleCollection) TableName() string { return "sample_collection" }

func (s *SampleCollection) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SampleCollectionMember struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SampleCollectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sample_collection_member,priority:1" json:"sample_collection_id"`
	SampleID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sample_collection_member,priority:2" json:"sample_id"`
}

func (SampleCollectionMember) TableName() string { return "sample_collection_member" }

func (m *SampleCollectionMember) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// CellSubsetLabel is a project-scoped name for a biological population.
type CellSubsetLabel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cell_subset_label_name,priority:1" json:"project_id"`
	Name        string    `gorm:"not null;uniqueIndex:idx_cell_subset_label_name,priority:2;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (CellSubsetLabel) TableName() string { return "cell_subset_label" }

func (l *CellSubsetLabel) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
