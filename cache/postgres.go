package cache

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore keeps cache entries in a single table:
//
//	cache_entries(key TEXT PRIMARY KEY, value TEXT, expires_at BIGINT)
//
// expires_at is epoch seconds. Concurrent access relies on Postgres row
// locking; there is no application-level locking and two concurrent writers
// for the same key resolve last-write-wins.
type PostgresStore struct {
	db    *sql.DB
	ready bool
	now   func() time.Time
}

func NewPostgresStore(dsn string) *PostgresStore {
	s := &PostgresStore{now: time.Now}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Printf("⚠️  cache: failed to open postgres: %v — cache disabled", err)
		return s
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Printf("⚠️  cache: postgres unreachable: %v — cache disabled", err)
		db.Close()
		return s
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		expires_at BIGINT NOT NULL
	)`); err != nil {
		log.Printf("⚠️  cache: migration failed: %v — cache disabled", err)
		db.Close()
		return s
	}

	s.db = db
	s.ready = true
	return s
}

func (s *PostgresStore) Ready() bool { return s.ready }

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.ready {
		return nil, false
	}
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries WHERE key = $1 AND expires_at > $2`,
		key, s.now().Unix()).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("⚠️  cache: get %q failed: %v", key, err)
		}
		return nil, false
	}
	return []byte(value), true
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !s.ready {
		return
	}
	expiresAt := s.now().Add(ttl).Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = $2, expires_at = $3`,
		key, string(value), expiresAt)
	if err != nil {
		log.Printf("⚠️  cache: set %q failed: %v", key, err)
	}
}

func (s *PostgresStore) Delete(ctx context.Context, key string) {
	if !s.ready {
		return
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key); err != nil {
		log.Printf("⚠️  cache: delete %q failed: %v", key, err)
	}
}

func (s *PostgresStore) SweepExpired(ctx context.Context) int {
	if !s.ready {
		return 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at <= $1`, s.now().Unix())
	if err != nil {
		log.Printf("⚠️  cache: sweep failed: %v", err)
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
