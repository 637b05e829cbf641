package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/concierge/internal/domain"
)

// ErrNotFound is returned when a lead id does not exist.
var ErrNotFound = errors.New("lead not found")

// ListOptions filters a lead listing. Zero values mean no filter.
type ListOptions struct {
	Limit   int
	Context string
	Since   time.Time
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return 100
	}
	return o.Limit
}

// prepareLead fills the id and creation time of a new lead.
func prepareLead(l domain.Lead) domain.Lead {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	l.CreatedAt = l.CreatedAt.UTC().Truncate(time.Millisecond)
	return l
}

// SQLiteLeadStore stores leads in the leads table with FTS5 search.
type SQLiteLeadStore struct {
	db *DB
}

// NewSQLiteLeadStore creates a lead store using the given database.
func NewSQLiteLeadStore(db *DB) *SQLiteLeadStore {
	return &SQLiteLeadStore{db: db}
}

const leadColumns = `id, session_id, request_id, context, message, reply, created_at`

// Save inserts a lead. Saving the same session and request twice keeps
// the first record.
func (s *SQLiteLeadStore) Save(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	l = prepareLead(l)
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, request_id) DO NOTHING`,
		l.ID, l.SessionID, int64(l.RequestID), l.Context, l.Message, l.Reply,
		l.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("saving lead: %w", err)
	}
	return l, nil
}

// Get returns a lead by id.
func (s *SQLiteLeadStore) Get(ctx context.Context, id string) (domain.Lead, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	if err != nil {
		return domain.Lead{}, err
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return domain.Lead{}, err
	}
	if len(leads) == 0 {
		return domain.Lead{}, ErrNotFound
	}
	return leads[0], nil
}

// List returns leads newest first.
func (s *SQLiteLeadStore) List(ctx context.Context, opts ListOptions) ([]domain.Lead, error) {
	var where []string
	var args []any
	if opts.Context != "" {
		where = append(where, "context = ?")
		args = append(args, opts.Context)
	}
	if !opts.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, opts.Since.UTC().Format(timeLayout))
	}

	q := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, opts.limit())

	rows, err := s.db.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

// Search runs a full-text query over lead messages and replies, best
// matches first. The query is matched as a phrase.
func (s *SQLiteLeadStore) Search(ctx context.Context, query string, limit int) ([]domain.Lead, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	phrase := `"` + strings.ReplaceAll(query, `"`, `""`) + `"`

	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT l.id, l.session_id, l.request_id, l.context, l.message, l.reply, l.created_at
		 FROM leads_fts f
		 JOIN leads l ON l.rowid = f.rowid
		 WHERE leads_fts MATCH ?
		 ORDER BY f.rank
		 LIMIT ?`,
		phrase, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeads(rows)
}

// DeleteBefore removes leads created before cutoff and reports how many
// were removed.
func (s *SQLiteLeadStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.sql.ExecContext(ctx,
		`DELETE FROM leads WHERE created_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning leads: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored leads.
func (s *SQLiteLeadStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n)
	return n, err
}

func scanLeads(rows *sql.Rows) ([]domain.Lead, error) {
	var leads []domain.Lead
	for rows.Next() {
		var l domain.Lead
		var requestID int64
		var createdAt string

		if err := rows.Scan(
			&l.ID, &l.SessionID, &requestID, &l.Context,
			&l.Message, &l.Reply, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning lead: %w", err)
		}

		l.RequestID = uint64(requestID)
		l.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
