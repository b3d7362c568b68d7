package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/noah-isme/treestatus-api/pkg/config"
	"github.com/noah-isme/treestatus-api/pkg/timecodec"
)

func init() {
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// New opens the database selected by cfg.Driver.
func New(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	case config.DriverPostgres, "":
		return NewPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open(config.DriverPostgres, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// NewSQLite opens a SQLite database file. SQLite has no row-level locks, so
// the pool holds a single connection and writers serialize on it.
func NewSQLite(path string) (*sqlx.DB, error) {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Add("_pragma", "journal_mode(WAL)")

	db, err := sqlx.Open(config.DriverSQLite, "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// IsSQLite reports whether the handle talks to SQLite.
func IsSQLite(driverName string) bool {
	return driverName == config.DriverSQLite
}

// Codec returns the timestamp codec for the driver. SQLite has no timezone
// aware column type, so values are stored zone-less in UTC.
func Codec(driverName string) timecodec.Codec {
	return timecodec.Codec{Naive: IsSQLite(driverName)}
}

// TxOptions returns the isolation used for multi-row mutations.
func TxOptions(driverName string) *sql.TxOptions {
	if IsSQLite(driverName) {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

// LockClause returns the row locking suffix for SELECTs inside mutations.
func LockClause(driverName string) string {
	if IsSQLite(driverName) {
		return ""
	}
	return " FOR UPDATE"
}

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}
