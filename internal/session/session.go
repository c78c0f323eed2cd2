// Package session persists conversation history and scheduling outcomes
// in a local SQLite database, so repeated CLI invocations share context.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/teemow/conflictfewer/internal/timeutil"
)

// ErrNotFound is returned when a session or message does not exist.
var ErrNotFound = errors.New("session: not found")

// Session is one conversation owned by an account.
type Session struct {
	ID        string
	Account   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn within a session.
type Message struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// ScheduledEvent records a calendar event created during a session.
type ScheduledEvent struct {
	ID         string
	SessionID  string
	EventID    string
	CalendarID string
	Title      string
	Start      time.Time
	End        time.Time
	HTMLLink   string
	CreatedAt  time.Time
}

// Store is a SQLite-backed session store. It is safe for concurrent use;
// database/sql serializes access to the single connection pool.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("session: database path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			account TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scheduled_events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			event_id TEXT NOT NULL,
			calendar_id TEXT NOT NULL,
			title TEXT NOT NULL,
			start_at TEXT NOT NULL,
			end_at TEXT NOT NULL,
			html_link TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON scheduled_events(session_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply session schema: %w", err)
		}
	}
	return nil
}

// CreateSession starts a new session for the account.
func (s *Store) CreateSession(ctx context.Context, account string) (Session, error) {
	if account == "" {
		account = "default"
	}
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Account:   account,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, account, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Account, formatTime(now), formatTime(now))
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, account, created_at, updated_at FROM sessions WHERE id = ?`, id)

	var sess Session
	var created, updated string
	if err := row.Scan(&sess.ID, &sess.Account, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	sess.CreatedAt = parseTime(created)
	sess.UpdatedAt = parseTime(updated)
	return sess, nil
}

// LatestSession returns the account's most recently updated session, or
// ErrNotFound when the account has none yet.
func (s *Store) LatestSession(ctx context.Context, account string) (Session, error) {
	if account == "" {
		account = "default"
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, account, created_at, updated_at FROM sessions
		 WHERE account = ? ORDER BY updated_at DESC, id DESC LIMIT 1`, account)

	var sess Session
	var created, updated string
	if err := row.Scan(&sess.ID, &sess.Account, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	sess.CreatedAt = parseTime(created)
	sess.UpdatedAt = parseTime(updated)
	return sess, nil
}

// AppendMessage adds one turn to a session and bumps its updated time.
func (s *Store) AppendMessage(ctx context.Context, sessionID, role, content string) (Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return Message{}, err
	}
	now := time.Now().UTC()
	msg := Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Role, msg.Content, formatTime(now))
	if err != nil {
		return Message{}, fmt.Errorf("failed to append message: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, formatTime(now), sessionID); err != nil {
		return Message{}, fmt.Errorf("failed to touch session: %w", err)
	}
	return msg, nil
}

// Messages returns a session's turns in insertion order.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM messages
		 WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var created string
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecordEvent stores a created calendar event against a session.
func (s *Store) RecordEvent(ctx context.Context, sessionID string, eventID, calendarID, title, htmlLink string, window timeutil.Interval) (ScheduledEvent, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return ScheduledEvent{}, err
	}
	now := time.Now().UTC()
	ev := ScheduledEvent{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		EventID:    eventID,
		CalendarID: calendarID,
		Title:      title,
		Start:      window.Start,
		End:        window.End,
		HTMLLink:   htmlLink,
		CreatedAt:  now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_events (id, session_id, event_id, calendar_id, title, start_at, end_at, html_link, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, ev.EventID, ev.CalendarID, ev.Title,
		formatTime(ev.Start), formatTime(ev.End), ev.HTMLLink, formatTime(now))
	if err != nil {
		return ScheduledEvent{}, fmt.Errorf("failed to record event: %w", err)
	}
	return ev, nil
}

// Events returns the events scheduled during a session, oldest first.
func (s *Store) Events(ctx context.Context, sessionID string) ([]ScheduledEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, event_id, calendar_id, title, start_at, end_at, html_link, created_at
		 FROM scheduled_events WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []ScheduledEvent
	for rows.Next() {
		var ev ScheduledEvent
		var start, end, created string
		var link sql.NullString
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.EventID, &ev.CalendarID, &ev.Title,
			&start, &end, &link, &created); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Start = parseTime(start)
		ev.End = parseTime(end)
		ev.HTMLLink = link.String
		ev.CreatedAt = parseTime(created)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// DeleteSession removes a session with its messages and events.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	// SQLite only honors ON DELETE CASCADE with foreign keys enabled, so
	// clean up dependents explicitly.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_events WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session events: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
