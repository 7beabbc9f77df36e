package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
}

func New(path string) (*DB, error) {
	// Foreign keys and busy timeout are per-connection settings, so they go
	// into the DSN where every pooled connection picks them up.
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_foreign_keys=on&_busy_timeout=5000"

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode allows readers to work while a writer is writing
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// NORMAL is a good balance with WAL; FULL is safer but slower
	if _, err := conn.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	// -64000 = 64MB cache
	if _, err := conn.Exec("PRAGMA cache_size=-64000"); err != nil {
		return nil, fmt.Errorf("failed to set cache size: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE,
		password_hash TEXT,
		name TEXT NOT NULL,
		initials TEXT NOT NULL,
		avatar_color TEXT NOT NULL DEFAULT '#003366',
		badge TEXT,
		status TEXT NOT NULL DEFAULT 'online',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		author TEXT NOT NULL,
		author_initials TEXT NOT NULL,
		avatar_color TEXT NOT NULL,
		badge TEXT,
		badge_color TEXT,
		text TEXT NOT NULL,
		edited BOOLEAN NOT NULL DEFAULT 0,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		size TEXT NOT NULL,
		type TEXT NOT NULL,
		data TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (message_id) REFERENCES messages(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_messages_user_id ON messages(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
	CREATE INDEX IF NOT EXISTS idx_attachments_message_id ON attachments(message_id);
	`

func (db *DB) migrate() error {
	_, err := db.conn.Exec(schema)
	return err
}

// Reset drops all application tables and recreates them empty. Backs the
// destructive /api/init endpoint.
func (db *DB) Reset() error {
	_, err := db.conn.Exec(`
		DROP TABLE IF EXISTS attachments;
		DROP TABLE IF EXISTS messages;
		DROP TABLE IF EXISTS users;
	`)
	if err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return db.migrate()
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) GetConn() *sql.DB {
	return db.conn
}
