package db

import (
	"database/sql"

	"github.com/ad/go-telegram-onboarding/internal/models"
)

// ProgressRepository keeps serialized progress blobs, one row per key.
type ProgressRepository struct {
	queue *DBQueue
}

func NewProgressRepository(queue *DBQueue) *ProgressRepository {
	return &ProgressRepository{queue: queue}
}

func (r *ProgressRepository) Save(key string, state models.ProgressState) error {
	data, err := models.EncodeProgressState(state)
	if err != nil {
		return err
	}
	return r.SaveRaw(key, data)
}

func (r *ProgressRepository) SaveRaw(key string, data []byte) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO progress_state (key, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, key, string(data))
		return nil, err
	})
	return err
}

// Load returns the stored blob for key, or sql.ErrNoRows when none exists.
func (r *ProgressRepository) Load(key string) ([]byte, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var value string
		err := db.QueryRow(`SELECT value FROM progress_state WHERE key = ?`, key).Scan(&value)
		return []byte(value), err
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
