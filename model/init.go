package model

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func buildMigrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "2024121500",
			Migrate: func(db *gorm.DB) error {
				return db.AutoMigrate(
					&ChatRoom{},
					&Message{},
				)
			},
			Rollback: func(db *gorm.DB) error {
				return db.Migrator().DropTable(&Message{}, &ChatRoom{})
			},
		},
	}
}

// Migrate brings the schema up to date.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, buildMigrations())
	return m.Migrate()
}
