package db

import (
	"database/sql"

	"github.com/ad/go-telegram-onboarding/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY,
    first_name TEXT,
    last_name TEXT,
    username TEXT,
    language_code TEXT DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS progress_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_chat_state (
    user_id INTEGER PRIMARY KEY,
    screen TEXT NOT NULL DEFAULT '',
    phone_number TEXT DEFAULT '',
    first_name TEXT DEFAULT '',
    last_name TEXT DEFAULT '',
    otp_sent_at DATETIME
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const defaultSettings = `
INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?), (?, ?);
`

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec(defaultSettings,
		SettingWelcomeMessage, models.DefaultWelcomeMessage,
		SettingFinalMessage, models.DefaultFinalMessage)
	return err
}
