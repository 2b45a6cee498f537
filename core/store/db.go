package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"incidesk/config"
	"incidesk/core/utils"
)

// NewDB opens the configured database. Postgres is the production
// backend; a sqlite file is used when db_path is set, which is what the
// test runtime does.
func NewDB(cfg *config.AppConfig, logger *utils.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch {
	case cfg.DBPath != "":
		db, err = sql.Open("sqlite", cfg.DBPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	case cfg.DBDriver == "postgres" || cfg.DBDriver == "":
		db, err = sql.Open("pgx", cfg.DBURL)
		if err == nil {
			db.SetMaxOpenConns(20)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(30 * time.Minute)
		}
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if logger != nil {
		logger.Printf("database connected")
	}
	return db, nil
}
