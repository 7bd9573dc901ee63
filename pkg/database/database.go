package database

import (
	"fmt"
	"time"

	"studyflow/configs"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DSN builds a lib/pq connection string for dbName.
func DSN(cfg configs.Config, dbName string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, dbName)
}

// ConnectDB opens and pings the application database.
func ConnectDB(cfg configs.Config) (*sqlx.DB, error) {
	return Open(DSN(cfg, cfg.DBName))
}

// Open connects to dsn with the service's pool settings.
func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}
