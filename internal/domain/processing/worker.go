package processing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Worker binds an external processing host to exactly one user account.
type Worker struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Hostname  string    `gorm:"column:hostname;not null" json:"hostname"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Worker) TableName() string { return "worker" }

func (w *Worker) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
