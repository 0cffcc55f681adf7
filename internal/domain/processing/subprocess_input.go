package processing

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubprocessInput is a persisted input definition. Rows are seeded from the
// compiled catalog and referenced by ProcessRequestInput.
type SubprocessInput struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Category       string    `gorm:"column:category;not null;uniqueIndex:idx_subprocess_input_def,priority:1" json:"category"`
	Implementation string    `gorm:"column:implementation;not null;uniqueIndex:idx_subprocess_input_def,priority:2" json:"implementation"`
	Name           string    `gorm:"column:name;not null;uniqueIndex:idx_subprocess_input_def,priority:3" json:"name"`
	ValueType      string    `gorm:"column:value_type;not null" json:"value_type"`
	Description    string    `gorm:"column:description" json:"description"`
}

func (SubprocessInput) TableName() string { return "subprocess_input" }

func (s *SubprocessInput) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Definition returns the (category, implementation, name) triple of the row.
func (s *SubprocessInput) Definition() Definition {
	return Definition{Category: s.Category, Implementation: s.Implementation, Name: s.Name}
}
