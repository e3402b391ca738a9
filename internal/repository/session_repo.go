// Package repository provides data access for persisted sessions.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/illumiterm/backend/internal/model"
)

// SessionRepository provides data access for sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database.
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	argvJSON, err := session.ArgvToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize argv: %w", err)
	}

	query := `
		INSERT INTO sessions (id, command, argv, workdir, title, status, pid, log_file_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.Command,
		argvJSON,
		session.Workdir,
		session.Title,
		session.Status,
		session.PID,
		session.LogFilePath,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	query := `
		SELECT id, command, argv, workdir, title, status, exit_code, pid, log_file_path, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List(ctx context.Context) ([]*model.Session, error) {
	query := `
		SELECT id, command, argv, workdir, title, status, exit_code, pid, log_file_path, created_at, updated_at
		FROM sessions
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	session := &model.Session{}
	var command sql.NullString
	var argvJSON string
	var workdir sql.NullString
	var title sql.NullString
	var exitCode sql.NullInt64
	var pid sql.NullInt64
	var logFilePath sql.NullString

	err := row.Scan(
		&session.ID,
		&command,
		&argvJSON,
		&workdir,
		&title,
		&session.Status,
		&exitCode,
		&pid,
		&logFilePath,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := session.ArgvFromJSON(argvJSON); err != nil {
		return nil, fmt.Errorf("failed to parse argv: %w", err)
	}

	if command.Valid {
		session.Command = command.String
	}
	if workdir.Valid {
		session.Workdir = workdir.String
	}
	if title.Valid {
		session.Title = title.String
	}
	if logFilePath.Valid {
		session.LogFilePath = logFilePath.String
	}
	if exitCode.Valid {
		code := int(exitCode.Int64)
		session.ExitCode = &code
	}
	if pid.Valid {
		p := int(pid.Int64)
		session.PID = &p
	}

	return session, nil
}

// Delete removes a session from the database.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// UpdateStatus updates the status of a session.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status model.SessionStatus, exitCode *int) error {
	query := `
		UPDATE sessions
		SET status = ?, exit_code = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, exitCode, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// UpdatePID records the child process ID of a session.
func (r *SessionRepository) UpdatePID(ctx context.Context, id string, pid int) error {
	query := `
		UPDATE sessions
		SET pid = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, pid, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update session pid: %w", err)
	}

	return nil
}

// UpdateTitle records the window title of a session.
func (r *SessionRepository) UpdateTitle(ctx context.Context, id string, title string) error {
	query := `
		UPDATE sessions
		SET title = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query, title, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", err)
	}

	return nil
}

// Exists checks if a session exists.
func (r *SessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT 1 FROM sessions WHERE id = ? LIMIT 1`

	var exists int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}

	return true, nil
}
