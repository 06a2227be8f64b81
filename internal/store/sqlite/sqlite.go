package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mkazmin/chatcast-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_guest      BOOLEAN NOT NULL DEFAULT 0,
	session_id    TEXT,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	chat_id    TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS room_users (
	chat_id   TEXT NOT NULL,
	user_id   INTEGER NOT NULL,
	user_name TEXT NOT NULL,
	color     TEXT NOT NULL,
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (chat_id, user_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id     TEXT NOT NULL,
	user_id     INTEGER NOT NULL,
	sender_name TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages (chat_id);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest)
		VALUES (?, ?, 0)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// CreateGuestUser creates a temporary guest user with session ID.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, sessionID string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest, session_id)
		VALUES (?, '', 1, ?)
	`
	guestUsername := "guest_" + sessionID[:8]

	result, err := s.db.ExecContext(ctx, query, guestUsername, sessionID)
	if err != nil {
		return nil, fmt.Errorf("insert guest user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.SessionID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a user by username. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, COALESCE(session_id, ''), created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.SessionID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// ==== RoomStore implementation ====

// GetOrCreateRoom returns the room for chatID, creating it atomically if absent.
// ON CONFLICT DO NOTHING makes concurrent creates for the same chat id converge
// on a single row.
func (s *SQLiteStore) GetOrCreateRoom(ctx context.Context, chatID, name string) (*store.Room, error) {
	query := `
		INSERT INTO rooms (chat_id, name)
		VALUES (?, ?)
		ON CONFLICT(chat_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, chatID, name); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	room, err := s.GetRoom(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %q missing after create", chatID)
	}
	return room, nil
}

// GetRoom retrieves a room with its members in join order. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetRoom(ctx context.Context, chatID string) (*store.Room, error) {
	query := `
		SELECT chat_id, name, created_at
		FROM rooms
		WHERE chat_id = ?
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(&room.ChatID, &room.Name, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, user_name, color
		FROM room_users
		WHERE chat_id = ?
		ORDER BY joined_at, user_id
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query room users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u store.RoomUser
		if err := rows.Scan(&u.UserID, &u.UserName, &u.Color); err != nil {
			return nil, fmt.Errorf("scan room user: %w", err)
		}
		room.Users = append(room.Users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room users: %w", err)
	}

	return &room, nil
}

// AddRoomUser adds a membership record; an existing (chat, user) pair is left untouched.
func (s *SQLiteStore) AddRoomUser(ctx context.Context, chatID string, user store.RoomUser) error {
	query := `
		INSERT OR IGNORE INTO room_users (chat_id, user_id, user_name, color)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, chatID, user.UserID, user.UserName, user.Color); err != nil {
		return fmt.Errorf("insert room user: %w", err)
	}
	return nil
}

// GetRoomUser retrieves one membership record. Returns (nil, nil) when absent.
func (s *SQLiteStore) GetRoomUser(ctx context.Context, chatID string, userID int64) (*store.RoomUser, error) {
	query := `
		SELECT user_id, user_name, color
		FROM room_users
		WHERE chat_id = ? AND user_id = ?
	`
	var u store.RoomUser
	err := s.db.QueryRowContext(ctx, query, chatID, userID).Scan(&u.UserID, &u.UserName, &u.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query room user: %w", err)
	}
	return &u, nil
}

// ==== MessageStore implementation ====

// CreateMessage persists a message and fills in its ID and CreatedAt.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (chat_id, user_id, sender_name, color, body)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.ChatID, msg.UserID, msg.SenderName, msg.Color, msg.Body)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id

	err = s.db.QueryRowContext(ctx, `SELECT created_at FROM messages WHERE id = ?`, id).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("query message created_at: %w", err)
	}
	return nil
}

// DeleteMessage removes a message by id; deleting an absent id is a no-op.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

// ListMessages returns all messages of a chat in creation order.
func (s *SQLiteStore) ListMessages(ctx context.Context, chatID string) ([]store.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, user_id, sender_name, color, body, created_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY id
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]store.Message, 0)
	for rows.Next() {
		var m store.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.UserID, &m.SenderName, &m.Color, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
