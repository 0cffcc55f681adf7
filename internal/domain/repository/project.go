package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project scopes every sample, label and process request.
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Permission is a per-project capability grant.
type Permission string

const (
	PermissionView    Permission = "view_project_data"
	PermissionAdd     Permission = "add_project_data"
	PermissionModify  Permission = "modify_project_data"
	PermissionProcess Permission = "submit_process_requests"
)

func (p Permission) Valid() bool {
	switch p {
	case PermissionView, PermissionAdd, PermissionModify, PermissionProcess:
		return true
	}
	return false
}

// ProjectPermission grants one Permission on one Project to one user.
type ProjectPermission struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_project_permission_grant,priority:1" json:"user_id"`
	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_project_permission_grant,priority:2;index" json:"project_id"`
	Permission Permission `gorm:"not null;uniqueIndex:idx_project_permission_grant,priority:3;column:permission" json:"permission"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
}

func (ProjectPermission) TableName() string { return "project_permission" }

func (p *ProjectPermission) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
