package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// DB holds the optional history/plan store. The core recommendation flow
// never requires it: when Postgres is absent, handlers skip persistence and
// PDF downloads are unavailable.
type DB struct {
	conn *sql.DB
}

// ─── Models ──────────────────────────────────────────────────────────────────

// SearchRecord is the audit trail of recommendation requests.
type SearchRecord struct {
	ID            string    `json:"id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	SearchMode    string    `json:"search_mode"`
	DepartureDate string    `json:"departure_date,omitempty"`
	ReturnDate    string    `json:"return_date,omitempty"`
	PeriodStart   string    `json:"period_start,omitempty"`
	PeriodEnd     string    `json:"period_end,omitempty"`
	Adults        int       `json:"adults"`
	Budget        float64   `json:"budget"`
	CreatedAt     time.Time `json:"created_at"`
}

// Plan is a generated itinerary with its rendered PDF.
type Plan struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	PlanText    string    `json:"plan_text"`
	PDFData     []byte    `json:"pdf_data,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ─── Init ─────────────────────────────────────────────────────────────────────

// Open connects and migrates. A connection failure is returned, not fatal;
// main logs it and runs without history.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// The database may take a moment to come up alongside the service.
	for i := 0; i < 10; i++ {
		if err = conn.Ping(); err == nil {
			break
		}
		log.Printf("⏳ Waiting for database... attempt %d/10: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	log.Println("✅ Database connected and migrated")
	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id             TEXT PRIMARY KEY,
			origin         TEXT NOT NULL,
			destination    TEXT NOT NULL,
			search_mode    TEXT NOT NULL,
			departure_date TEXT,
			return_date    TEXT,
			period_start   TEXT,
			period_end     TEXT,
			adults         INTEGER DEFAULT 1,
			budget         NUMERIC(12,2) DEFAULT 0,
			created_at     TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS plans (
			id          TEXT PRIMARY KEY,
			destination TEXT NOT NULL,
			plan_text   TEXT,
			pdf_data    BYTEA,
			created_at  TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_searches_created_at
			ON searches(created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) Ping() error {
	return db.conn.Ping()
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// ─── CRUD ─────────────────────────────────────────────────────────────────────

func (db *DB) SaveSearch(s *SearchRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO searches (id, origin, destination, search_mode, departure_date, return_date, period_start, period_end, adults, budget)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.Origin, s.Destination, s.SearchMode, s.DepartureDate, s.ReturnDate,
		s.PeriodStart, s.PeriodEnd, s.Adults, s.Budget)
	return err
}

func (db *DB) SavePlan(p *Plan) error {
	_, err := db.conn.Exec(`
		INSERT INTO plans (id, destination, plan_text, pdf_data)
		VALUES ($1, $2, $3, $4)`,
		p.ID, p.Destination, p.PlanText, p.PDFData)
	return err
}

func (db *DB) GetPlan(id string) (*Plan, error) {
	p := &Plan{}
	err := db.conn.QueryRow(`
		SELECT id, destination, plan_text, pdf_data, created_at
		FROM plans WHERE id = $1`, id).
		Scan(&p.ID, &p.Destination, &p.PlanText, &p.PDFData, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
