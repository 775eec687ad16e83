package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const quotaSchema = `
CREATE TABLE IF NOT EXISTS feature_usage (
	user_id    TEXT NOT NULL,
	feature    TEXT NOT NULL,
	day        TEXT NOT NULL,
	uses       INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (user_id, feature, day)
);
`

// QuotaStore is a local Checker that allows a fixed number of uses per user,
// per feature, per UTC day, persisted in SQLite.
type QuotaStore struct {
	db    *sqlx.DB
	limit int
	now   func() time.Time
}

// NewQuotaStore opens (or creates) the SQLite database at dbPath.
// A limit <= 0 disables the quota.
func NewQuotaStore(dbPath string, limit int) (*QuotaStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(quotaSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &QuotaStore{db: db, limit: limit, now: time.Now}, nil
}

func (s *QuotaStore) Close() error {
	return s.db.Close()
}

func (s *QuotaStore) day() string {
	return s.now().UTC().Format("2006-01-02")
}

// Used returns the usage count for the current window.
func (s *QuotaStore) Used(ctx context.Context, userID, feature string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT uses FROM feature_usage WHERE user_id = ? AND feature = ? AND day = ?`,
		userID, feature, s.day())
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage: %w", err)
	}
	return count, nil
}

func (s *QuotaStore) Check(ctx context.Context, userID, feature string) (Decision, error) {
	if s.limit <= 0 {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	used, err := s.Used(ctx, userID, feature)
	if err != nil {
		return Decision{}, err
	}
	remaining := max(s.limit-used, 0)
	if remaining == 0 {
		return s.denied(), nil
	}
	return Decision{Allowed: true, Remaining: remaining, Limit: s.limit}, nil
}

// Reserve takes one use in a single upsert. The conditional DO UPDATE leaves
// a full row untouched, so concurrent callers can never exceed the limit.
func (s *QuotaStore) Reserve(ctx context.Context, userID, feature string) (Decision, error) {
	now := s.now().UTC()
	limit := s.limit
	if limit <= 0 {
		limit = math.MaxInt32
	}

	var uses int
	err := s.db.GetContext(ctx, &uses,
		`INSERT INTO feature_usage (user_id, feature, day, uses, updated_at) VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(user_id, feature, day) DO UPDATE SET uses = uses + 1, updated_at = excluded.updated_at
		 WHERE feature_usage.uses < ?
		 RETURNING uses`,
		userID, feature, now.Format("2006-01-02"), now.Format(time.RFC3339), limit)
	if errors.Is(err, sql.ErrNoRows) {
		return s.denied(), nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("reserve usage: %w", err)
	}

	if s.limit <= 0 {
		return Decision{Allowed: true, Remaining: -1}, nil
	}
	return Decision{Allowed: true, Remaining: max(s.limit-uses, 0), Limit: s.limit}, nil
}

// Release gives back one use in the current window.
func (s *QuotaStore) Release(ctx context.Context, userID, feature string) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE feature_usage SET uses = uses - 1, updated_at = ?
		 WHERE user_id = ? AND feature = ? AND day = ? AND uses > 0`,
		now.Format(time.RFC3339), userID, feature, now.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("release usage: %w", err)
	}
	return nil
}

func (s *QuotaStore) denied() Decision {
	return Decision{
		Allowed: false,
		Limit:   s.limit,
		Reason:  fmt.Sprintf("daily limit of %d reached", s.limit),
	}
}

// Prune deletes usage rows from windows before the current one.
func (s *QuotaStore) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feature_usage WHERE day < ?`, s.day())
	if err != nil {
		return 0, fmt.Errorf("prune usage: %w", err)
	}
	return res.RowsAffected()
}
