package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/regcheck/internal/database"
)

// ConnectDatabase opens the Postgres connection and applies embedded
// migrations. The cache is the core of the service, so callers treat a
// failure here as fatal rather than degrading.
func ConnectDatabase(deps CommandDeps) (*sqlx.DB, error) {
	dbCfg := deps.Config.Database

	db, err := database.NewPostgresConnection(database.Config{
		Host:     dbCfg.Host,
		Port:     dbCfg.Port,
		User:     dbCfg.User,
		Password: dbCfg.Password,
		DBName:   dbCfg.DBName,
		SSLMode:  dbCfg.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	deps.Logger.Info("Database connected",
		"host", dbCfg.Host,
		"port", dbCfg.Port,
		"dbname", dbCfg.DBName,
	)

	return db, nil
}
