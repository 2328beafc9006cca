package datamodel

import (
	"fmt"

	thanksDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/thanks"
	userDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/user"
	"gorm.io/gorm"
)

// Models lists every persisted row type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&thanksDatamodel.Thanks{},
	}
}

// AutoMigrate creates the schema from the row structs. Postgres deployments
// use the goose migrations instead; this serves sqlite and tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
