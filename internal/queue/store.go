package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on incompatible schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible version.
var ErrSchemaMismatch = errors.New("queue schema version mismatch")

// ErrNotFound is returned when a request id does not exist.
var ErrNotFound = errors.New("print request not found")

// Store manages print request persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("queue path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure queue dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite prefers a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'`,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if count == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

const requestColumns = `id, user_id, chat_id, message_id, file_path, file_name,
	media, duplex, fit_to_page, copies, status, error_message, submitted_at, updated_at`

// Enqueue appends a pending request and returns its assigned id.
func (s *Store) Enqueue(ctx context.Context, req *Request) (int64, error) {
	if req == nil {
		return 0, errors.New("request is nil")
	}
	now := time.Now().UTC()
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = now
	}
	req.UpdatedAt = now
	req.Status = StatusPending

	copies := req.Options.Copies
	if copies <= 0 {
		copies = 1
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO print_requests (
            user_id, chat_id, message_id, file_path, file_name,
            media, duplex, fit_to_page, copies, status, submitted_at, updated_at
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		req.UserID, req.ChatID, req.MessageID, req.FilePath, req.FileName,
		req.Options.Media, req.Options.Duplex, boolToInt(req.Options.FitToPage), copies,
		StatusPending,
		req.SubmittedAt.Format(time.RFC3339Nano),
		req.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	req.ID = id
	return id, nil
}

// GetByID fetches a request by identifier. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM print_requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// ListPending returns pending requests in submission (FIFO) order.
func (s *Store) ListPending(ctx context.Context) ([]*Request, error) {
	return s.listByStatus(ctx, StatusPending)
}

// ListFailed returns retained failed requests in submission order.
func (s *Store) ListFailed(ctx context.Context) ([]*Request, error) {
	return s.listByStatus(ctx, StatusFailed)
}

func (s *Store) listByStatus(ctx context.Context, status Status) ([]*Request, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM print_requests WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// CountPending returns the number of pending requests.
func (s *Store) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM print_requests WHERE status = ?`, StatusPending).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending: %w", err)
	}
	return n, nil
}

// MarkPrinted removes a pending request that was handed to the printer.
// Idempotent: a request that is already terminal (or gone) is a no-op,
// so a retried drain cannot double-account.
func (s *Store) MarkPrinted(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM print_requests WHERE id = ? AND status = ?`, id, StatusPending)
	if err != nil {
		return fmt.Errorf("mark printed: %w", err)
	}
	return nil
}

// MarkFailed transitions a pending request to failed, keeping the row for
// operator inspection. Idempotent on terminal rows.
func (s *Store) MarkFailed(ctx context.Context, id int64, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE print_requests SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed, nullableString(reason), time.Now().UTC().Format(time.RFC3339Nano),
		id, StatusPending)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// Remove deletes a request regardless of status. Returns ErrNotFound when
// the id does not exist.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM print_requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearFailed deletes all retained failed requests and reports how many.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM print_requests WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var (
		req         Request
		fit         int
		errMsg      sql.NullString
		submittedAt string
		updatedAt   string
		status      string
	)
	if err := row.Scan(
		&req.ID, &req.UserID, &req.ChatID, &req.MessageID, &req.FilePath, &req.FileName,
		&req.Options.Media, &req.Options.Duplex, &fit, &req.Options.Copies,
		&status, &errMsg, &submittedAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	req.Options.FitToPage = fit != 0
	req.Status = Status(status)
	req.ErrorMessage = errMsg.String
	if t, err := time.Parse(time.RFC3339Nano, submittedAt); err == nil {
		req.SubmittedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		req.UpdatedAt = t
	}
	return &req, nil
}

func nullableString(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
