package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

func dsn() string {
	get := func(key, fallback string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return fallback
		}
		return v
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s",
		get("DB_USER", "root"),
		os.Getenv("DB_PASS"),
		get("DB_ADDR", "127.0.0.1:3306"),
		get("DB_NAME", "andaman_ferry"),
	)
}

// ConnectDB initializes the shared DB connection (idempotent). Dying
// here is fine: it only runs at startup.
func ConnectDB() *sql.DB {
	dbMu.Lock()
	defer dbMu.Unlock()

	db, err := connectLocked()
	if err != nil {
		log.Fatalf("failed to connect DB: %v", err)
	}
	return db
}

// connectLocked expects dbMu held.
func connectLocked() (*sql.DB, error) {
	if DB != nil {
		return DB, nil
	}

	db, err := sql.Open("mysql", dsn())
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	DB = db
	log.Println("connected to MySQL")
	return DB, nil
}

// EnsureDB verifies the shared connection is alive, reconnecting if it
// was never established. Unlike ConnectDB it never exits the process.
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
