package db

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels()...)
}

// SeedSubprocessInputs inserts a subprocess_input row for every catalog entry
// that does not have one yet. Existing rows are left untouched.
func SeedSubprocessInputs(db *gorm.DB) error {
	specs := processing.CatalogSpecs()
	rows := make([]*types.SubprocessInput, 0, len(specs))
	for _, s := range specs {
		rows = append(rows, &types.SubprocessInput{
			Category:       s.Definition.Category,
			Implementation: s.Definition.Implementation,
			Name:           s.Definition.Name,
			ValueType:      s.ValueType,
			Description:    s.Description,
		})
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "category"}, {Name: "implementation"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed subprocess inputs: %w", err)
	}
	return nil
}

// Prepare migrates the schema and seeds the input catalog.
func Prepare(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return SeedSubprocessInputs(db)
}
