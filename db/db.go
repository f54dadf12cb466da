package db

import (
	"database/sql"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"ghostchat/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNoRows = errors.New("no rows found")

type DB struct {
	conn *sql.DB
}

func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			telegram_id TEXT UNIQUE NOT NULL,
			anonymous_id TEXT UNIQUE NOT NULL,
			name TEXT,
			status TEXT,
			gender TEXT,
			avatar_url TEXT,
			notifications_enabled INTEGER DEFAULT 1,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			contact_anonymous_id TEXT NOT NULL,
			added_at TEXT NOT NULL,
			UNIQUE(user_id, contact_anonymous_id),
			FOREIGN KEY(user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_telegram ON users(telegram_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_anonymous ON users(anonymous_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return err
		}
	}

	return nil
}

// GenerateAnonymousID draws random 7-digit ids until the store confirms one is
// free. The unique index on anonymous_id is the authority, not this loop.
func (db *DB) GenerateAnonymousID() (string, error) {
	for {
		id := strconv.Itoa(rand.Intn(9000000) + 1000000)
		var count int
		if err := db.conn.QueryRow("SELECT COUNT(*) FROM users WHERE anonymous_id = ?", id).Scan(&count); err != nil {
			return "", err
		}
		if count == 0 {
			return id, nil
		}
	}
}

// CreateUser inserts a fresh record for a telegram id seen for the first time.
func (db *DB) CreateUser(telegramID string) (*models.User, error) {
	anonymousID, err := db.GenerateAnonymousID()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = db.conn.Exec(
		"INSERT INTO users (id, telegram_id, anonymous_id, notifications_enabled, created_at) VALUES (?, ?, ?, 1, ?)",
		id, telegramID, anonymousID, now,
	)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:                   id,
		TelegramID:           telegramID,
		AnonymousID:          anonymousID,
		NotificationsEnabled: true,
		CreatedAt:            now,
	}, nil
}

func (db *DB) GetUserByTelegramID(telegramID string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, telegram_id, anonymous_id, name, status, gender, avatar_url, notifications_enabled, created_at FROM users WHERE telegram_id = ?",
		telegramID,
	)
	return scanUser(row)
}

func (db *DB) GetUserByAnonymousID(anonymousID string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, telegram_id, anonymous_id, name, status, gender, avatar_url, notifications_enabled, created_at FROM users WHERE anonymous_id = ?",
		anonymousID,
	)
	return scanUser(row)
}

// UpdateUser mutates only the fields present in upd and returns the fresh record.
func (db *DB) UpdateUser(telegramID string, upd models.UserUpdate) (*models.User, error) {
	var sets []string
	var args []any

	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.Gender != nil {
		sets = append(sets, "gender = ?")
		args = append(args, *upd.Gender)
	}
	if upd.AvatarURL != nil {
		sets = append(sets, "avatar_url = ?")
		args = append(args, *upd.AvatarURL)
	}
	if upd.NotificationsEnabled != nil {
		sets = append(sets, "notifications_enabled = ?")
		if *upd.NotificationsEnabled {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}

	if len(sets) > 0 {
		args = append(args, telegramID)
		result, err := db.conn.Exec("UPDATE users SET "+strings.Join(sets, ", ")+" WHERE telegram_id = ?", args...)
		if err != nil {
			return nil, err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rowsAffected == 0 {
			return nil, ErrNoRows
		}
	}

	return db.GetUserByTelegramID(telegramID)
}

// Contact methods

func (db *DB) AddContact(userID, contactAnonymousID string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.conn.Exec(
		"INSERT INTO contacts (id, user_id, contact_anonymous_id, added_at) VALUES (?, ?, ?, ?)",
		id, userID, contactAnonymousID, now,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (db *DB) ContactExists(userID, contactAnonymousID string) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM contacts WHERE user_id = ? AND contact_anonymous_id = ?",
		userID, contactAnonymousID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *DB) DeleteContact(userID, contactAnonymousID string) error {
	result, err := db.conn.Exec(
		"DELETE FROM contacts WHERE user_id = ? AND contact_anonymous_id = ?",
		userID, contactAnonymousID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNoRows
	}

	return nil
}

// GetContacts returns the contact list newest-first, each entry joined with the
// target's public profile when the target still exists. IsOnline is left false
// for the caller to fill from the presence registry.
func (db *DB) GetContacts(userID string) ([]models.Contact, error) {
	rows, err := db.conn.Query(`
		SELECT c.contact_anonymous_id, u.name, u.status, u.gender, u.avatar_url, c.added_at
		FROM contacts c LEFT JOIN users u ON c.contact_anonymous_id = u.anonymous_id
		WHERE c.user_id = ? ORDER BY c.added_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		var c models.Contact
		var name, status, gender, avatarURL sql.NullString
		if err := rows.Scan(&c.AnonymousID, &name, &status, &gender, &avatarURL, &c.AddedAt); err != nil {
			return nil, err
		}
		c.Name = nullableString(name)
		c.Status = nullableString(status)
		c.Gender = nullableString(gender)
		c.AvatarURL = nullableString(avatarURL)
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var name, status, gender, avatarURL sql.NullString
	var notifications int

	err := row.Scan(&u.ID, &u.TelegramID, &u.AnonymousID, &name, &status, &gender, &avatarURL, &notifications, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}

	u.Name = nullableString(name)
	u.Status = nullableString(status)
	u.Gender = nullableString(gender)
	u.AvatarURL = nullableString(avatarURL)
	u.NotificationsEnabled = notifications != 0
	return &u, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
