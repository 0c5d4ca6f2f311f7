package database

import (
	"fmt"

	"procrastinators/internal/middleware"
	"procrastinators/internal/models"

	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Post{},
		&models.Like{},
		&models.Dislike{},
		&models.ABTestPageView{},
		&models.ABTestButtonClick{},
	}
}

// ApplySchema creates or updates all tables and indexes.
func ApplySchema(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	middleware.Logger.Info("Database migration completed")
	return nil
}

// TableStatus reports which model tables exist.
func TableStatus(db *gorm.DB) map[string]bool {
	status := make(map[string]bool)
	for _, m := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			continue
		}
		status[stmt.Schema.Table] = db.Migrator().HasTable(m)
	}
	return status
}
