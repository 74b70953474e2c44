package main

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mikios34/pickup-availability/config"
	"github.com/mikios34/pickup-availability/entity"
)

func setupDatabase(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.GetDBURL()), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	// Ensure required extensions for UUID are present (uuid_generate_v4)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		log.Println("warning: failed to ensure uuid-ossp extension:", err)
	}

	if err := db.AutoMigrate(
		&entity.Session{},
		&entity.FavoritePickup{},
	); err != nil {
		log.Fatal("failed to run migrations:", err)
	}
	return db
}
