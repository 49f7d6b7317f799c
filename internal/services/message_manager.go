package services

import (
	"context"
	"log"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

type MessageManager struct {
	sender   Sender
	errMgr   *ErrorManager
	maxRetry int
}

func NewMessageManager(sender Sender, errMgr *ErrorManager) *MessageManager {
	return &MessageManager{
		sender:   sender,
		errMgr:   errMgr,
		maxRetry: 2,
	}
}

func (m *MessageManager) SendWithRetry(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	var lastErr error
	for attempt := 0; attempt < m.maxRetry; attempt++ {
		msg, err := m.sender.SendMessage(ctx, params)
		if err == nil {
			return msg, nil
		}
		lastErr = err
	}
	chatID, _ := params.ChatID.(int64)
	if m.errMgr != nil {
		m.errMgr.NotifySendFailure(ctx, chatID, params, lastErr)
	}
	return nil, lastErr
}

// SendScreen sends a screen prompt with an optional inline keyboard.
func (m *MessageManager) SendScreen(ctx context.Context, chatID int64, text string, keyboard *tgmodels.InlineKeyboardMarkup) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	_, err := m.SendWithRetry(ctx, params)
	return err
}

// AnswerCallback acknowledges a button press; text, when set, is shown to the
// user as a toast.
func (m *MessageManager) AnswerCallback(ctx context.Context, callbackID, text string) {
	if _, err := m.sender.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	}); err != nil {
		log.Printf("[MSG] Failed to answer callback %s: %v", callbackID, err)
	}
}
