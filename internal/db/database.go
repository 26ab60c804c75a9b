package db

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/models"
)

// Open connects to postgres and migrates the bridge schema.
func Open(dsn string) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := database.AutoMigrate(
		&models.BridgeTransaction{},
		&models.TransactionEvent{},
		&models.ProofRecordRow{},
		&models.RelayHeader{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logrus.WithField("service", "db").Info("Database connected and schema migrated")
	return database, nil
}
