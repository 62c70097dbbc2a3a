// Package history records every wizard commit attempt in Postgres so
// the activity page and support tooling can see what an account
// submitted and when.
package history

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Outcome classifies a commit attempt.
type Outcome string

const (
	OutcomeSucceeded Outcome = "SUCCEEDED"
	OutcomeRejected  Outcome = "REJECTED"
	OutcomeFailed    Outcome = "FAILED"
)

// Record is one commit attempt for one wizard step.
type Record struct {
	ID            int64   `json:"id" db:"id"`
	AccountID     string  `json:"account_id" db:"account_id"`
	Step          string  `json:"step" db:"step"`
	Outcome       Outcome `json:"outcome" db:"outcome"`
	Message       string  `json:"message" db:"message"`
	CorrelationID string  `json:"correlation_id" db:"correlation_id"`
	Time          int64   `json:"time" db:"time"`
}

// Module owns the history table.
type Module struct {
	db *sqlx.DB
}

// Config is the Postgres connection configuration.
type Config struct {
	Host     string
	Port     string
	DBName   string
	User     string
	Password string
}

// NewModule connects to Postgres and ensures the schema exists.
func NewModule(cfg Config) (*Module, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		glog.Errorf("failed to connect to PostgreSQL: %v", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		glog.Errorf("failed to ping PostgreSQL: %v", err)
		return nil, err
	}

	glog.Infof("connected to PostgreSQL")

	m := &Module{db: db}
	if err := m.initSchema(); err != nil {
		glog.Errorf("failed to initialize history schema: %v", err)
		return nil, err
	}
	return m, nil
}

func (m *Module) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS setup_history (
		id BIGSERIAL PRIMARY KEY,
		account_id VARCHAR(64) NOT NULL,
		step VARCHAR(64) NOT NULL,
		outcome VARCHAR(16) NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		correlation_id VARCHAR(64) NOT NULL DEFAULT '',
		time BIGINT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_setup_history_account ON setup_history(account_id, time DESC);`

	_, err := m.db.Exec(schema)
	return err
}

// RecordCommit stores one commit attempt. Failures are logged but
// never block the response to the user.
func (m *Module) RecordCommit(accountID, step string, outcome Outcome, message, correlationID string) error {
	_, err := m.db.Exec(
		`INSERT INTO setup_history (account_id, step, outcome, message, correlation_id, time)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		accountID, step, outcome, message, correlationID, time.Now().Unix())
	if err != nil {
		glog.Errorf("failed to record commit history: %v", err)
	}
	return err
}

// QueryByAccount lists the most recent commit attempts for an
// account, newest first.
func (m *Module) QueryByAccount(accountID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []Record
	err := m.db.Select(&records,
		`SELECT id, account_id, step, outcome, message, correlation_id, time
		 FROM setup_history WHERE account_id = $1 ORDER BY time DESC, id DESC LIMIT $2`,
		accountID, limit)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the database connection.
func (m *Module) Close() error {
	return m.db.Close()
}
