package config

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"storefront/internal/utils"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// DSN assembles the MySQL DSN from DB_* variables.
func DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s",
		envOr("DB_USER", "root"),
		envRaw("DB_PASSWORD"),
		envOr("DB_HOST", "127.0.0.1:3306"),
		envOr("DB_NAME", "storefront"),
	)
}

// ConnectDB initializes the shared DB connection (idempotent).
func ConnectDB() (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()
	return connectLocked()
}

func connectLocked() (*sql.DB, error) {
	if DB != nil {
		return DB, nil
	}

	db, err := sql.Open("mysql", DSN())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	DB = db
	utils.L().Info("connected to MySQL", zap.String("host", envOr("DB_HOST", "127.0.0.1:3306")))
	return DB, nil
}

func EnsureDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB == nil {
		_, err := connectLocked()
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return DB.PingContext(ctx)
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
