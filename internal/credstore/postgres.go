package credstore

import (
	"context"
	"crypto/cipher"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS credentials (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// saltKey holds the base64 key-derivation salt. It is never sealed.
const saltKey = "__salt"

// InitPostgres opens the database at dsn and creates the credentials table.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// PostgresStore keeps sealed credentials in a PostgreSQL table.
type PostgresStore struct {
	// DB is the database handle for executing queries.
	DB   *sql.DB
	aead cipher.AEAD
}

// NewPostgresStore loads, or on first use creates, the salt stored in the
// credentials table and derives the sealing key from passphrase.
func NewPostgresStore(ctx context.Context, db *sql.DB, passphrase []byte) (*PostgresStore, error) {
	salt, err := loadSalt(ctx, db)
	if err != nil {
		return nil, err
	}
	aead, err := NewAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{DB: db, aead: aead}, nil
}

func loadSalt(ctx context.Context, db *sql.DB) ([]byte, error) {
	var encoded string
	err := db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = $1`, saltKey).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		salt, err := NewSalt()
		if err != nil {
			return nil, err
		}
		// another client may win the race; the re-read below picks its salt.
		if _, err := db.ExecContext(ctx,
			`INSERT INTO credentials (key, value) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			saltKey, base64.StdEncoding.EncodeToString(salt),
		); err != nil {
			return nil, fmt.Errorf("store salt: %w", err)
		}
		err = db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = $1`, saltKey).Scan(&encoded)
		if err != nil {
			return nil, fmt.Errorf("load salt: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("load salt: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(salt) != SaltSize {
		return nil, fmt.Errorf("load salt: %w", ErrCorrupt)
	}
	return salt, nil
}

// Put implements Store.
func (s *PostgresStore) Put(ctx context.Context, key, value string) error {
	sealed, err := seal(s.aead, key, value)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO credentials (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, sealed)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var sealed string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = $1`, key).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	plain, err := open(s.aead, key, sealed)
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return plain, true, nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM credentials WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
