package db

import (
	"database/sql"
	"fmt"

	"github.com/ad/go-telegram-onboarding/internal/models"
)

const (
	SettingWelcomeMessage = "welcome_message"
	SettingFinalMessage   = "final_message"
)

// SettingsRepository stores the texts the bot shows around the funnel.
type SettingsRepository struct {
	queue *DBQueue
}

func NewSettingsRepository(queue *DBQueue) *SettingsRepository {
	return &SettingsRepository{queue: queue}
}

// Text returns the stored value for key, or sql.ErrNoRows when unset.
func (r *SettingsRepository) Text(key string) (string, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var value string
		err := db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		return value, err
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Override replaces the texts it is given. Empty values are skipped so an
// unset variable keeps whatever is stored.
func (r *SettingsRepository) Override(texts models.Settings) error {
	values := map[string]string{
		SettingWelcomeMessage: texts.WelcomeMessage,
		SettingFinalMessage:   texts.FinalMessage,
	}
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		tx, err := db.Begin()
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		for key, value := range values {
			if value == "" {
				continue
			}
			if _, err := tx.Exec(`
				INSERT INTO settings (key, value) VALUES (?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value
			`, key, value); err != nil {
				return nil, fmt.Errorf("override %s: %w", key, err)
			}
		}
		return nil, tx.Commit()
	})
	return err
}

// Texts loads the welcome and final messages in one query.
func (r *SettingsRepository) Texts() (*models.Settings, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`SELECT key, value FROM settings WHERE key IN (?, ?)`,
			SettingWelcomeMessage, SettingFinalMessage)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		texts := &models.Settings{}
		fields := map[string]*string{
			SettingWelcomeMessage: &texts.WelcomeMessage,
			SettingFinalMessage:   &texts.FinalMessage,
		}
		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				return nil, err
			}
			*fields[key] = value
		}
		return texts, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Settings), nil
}
