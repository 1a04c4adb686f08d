package database

import (
	"os"

	"fetchit-auth/config"
	"fetchit-auth/tokenstore"

	"github.com/jmoiron/sqlx"
	"github.com/umakantv/go-utils/db"
	"github.com/umakantv/go-utils/db/migrations"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// InitializeClientDatabase opens the client's credential database and brings
// its schema up to date.
func InitializeClientDatabase(cfg config.ClientConfig) *sqlx.DB {
	dbConfig := db.DatabaseConfig{
		DRIVER: "sqlite3",
		DB:     cfg.TokenDB,
	}

	dbConn := db.GetDBConnection(dbConfig)
	// SQLite allows a single writer.
	dbConn.SetMaxOpenConns(1)

	if _, err := os.Stat(cfg.MigrationsDir); err == nil {
		if err := migrations.Migrate(dbConn, cfg.MigrationsDir); err != nil {
			logger.Error("Error while running migration", zap.Error(err))
			os.Exit(1)
		}
	} else {
		// Installed binaries run without the migrations directory.
		logger.Info("Migrations directory not found, applying embedded schema", zap.String("dir", cfg.MigrationsDir))
		if _, err := dbConn.Exec(tokenstore.Schema); err != nil {
			logger.Error("Error while applying schema", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("Database initialized successfully", zap.String("path", cfg.TokenDB))
	return dbConn
}
