package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresStore persists dialog sessions in Postgres via bun. Used when the
// host platform does not round-trip session attributes and Redis is not
// available.
type PostgresStore struct {
	db *bun.DB
}

type PostgresConfig struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"5s"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"4"`
}

type sessionRow struct {
	bun.BaseModel `bun:"table:dialog_sessions,alias:ds"`

	SessionID   string    `bun:"session_id,pk"`
	City        string    `bun:"city"`
	Zipcode     string    `bun:"zipcode"`
	Date        string    `bun:"showtime_date"`
	DisplayDate string    `bun:"display_date"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
	)
	sqldb := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Init creates the sessions table if it does not exist.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*sessionRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create dialog_sessions table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*DialogSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}

	row := new(sessionRow)
	err := s.db.NewSelect().
		Model(row).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dialog session: %w", err)
	}

	session := &DialogSession{
		SessionID:   row.SessionID,
		City:        row.City,
		Zipcode:     row.Zipcode,
		Date:        row.Date,
		DisplayDate: row.DisplayDate,
		UpdatedAt:   row.UpdatedAt,
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dialog session loaded from store: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) Save(ctx context.Context, session *DialogSession) error {
	if session == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(session.SessionID) == "" {
		return ErrInvalidSession
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now().UTC()
	}

	row := &sessionRow{
		SessionID:   session.SessionID,
		City:        session.City,
		Zipcode:     session.Zipcode,
		Date:        session.Date,
		DisplayDate: session.DisplayDate,
		UpdatedAt:   session.UpdatedAt.UTC(),
	}

	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (session_id) DO UPDATE").
		Set("city = EXCLUDED.city").
		Set("zipcode = EXCLUDED.zipcode").
		Set("showtime_date = EXCLUDED.showtime_date").
		Set("display_date = EXCLUDED.display_date").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save dialog session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}

	_, err := s.db.NewDelete().
		Model((*sessionRow)(nil)).
		Where("session_id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete dialog session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
