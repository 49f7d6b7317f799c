package db

import (
	"database/sql"

	"github.com/ad/go-telegram-onboarding/internal/models"
)

type ChatStateRepository struct {
	queue *DBQueue
}

func NewChatStateRepository(queue *DBQueue) *ChatStateRepository {
	return &ChatStateRepository{queue: queue}
}

func (r *ChatStateRepository) Save(state *models.ChatState) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var otpSentAt interface{}
		if state.OTPSentAt != nil {
			otpSentAt = state.OTPSentAt.UTC()
		}
		_, err := db.Exec(`
			INSERT INTO user_chat_state (user_id, screen, phone_number, first_name, last_name, otp_sent_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				screen = excluded.screen,
				phone_number = excluded.phone_number,
				first_name = excluded.first_name,
				last_name = excluded.last_name,
				otp_sent_at = excluded.otp_sent_at
		`, state.UserID, state.Screen, state.PhoneNumber, state.FirstName, state.LastName, otpSentAt)
		return nil, err
	})
	return err
}

// Get returns sql.ErrNoRows when the user has no saved chat state.
func (r *ChatStateRepository) Get(userID int64) (*models.ChatState, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT user_id, screen, phone_number, first_name, last_name, otp_sent_at
			FROM user_chat_state WHERE user_id = ?
		`, userID)

		var state models.ChatState
		var phone, firstName, lastName sql.NullString
		var otpSentAt sql.NullTime
		err := row.Scan(&state.UserID, &state.Screen, &phone, &firstName, &lastName, &otpSentAt)
		if err != nil {
			return nil, err
		}
		state.PhoneNumber = phone.String
		state.FirstName = firstName.String
		state.LastName = lastName.String
		if otpSentAt.Valid {
			state.OTPSentAt = &otpSentAt.Time
		}
		return &state, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.ChatState), nil
}

func (r *ChatStateRepository) Clear(userID int64) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`DELETE FROM user_chat_state WHERE user_id = ?`, userID)
		return nil, err
	})
	return err
}
