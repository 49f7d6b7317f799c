package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the part of *bot.Bot the onboarding screens talk to.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

const maxAdminMessageLen = 4000

type ErrorManager struct {
	sender  Sender
	adminID int64
}

func NewErrorManager(sender Sender, adminID int64) *ErrorManager {
	return &ErrorManager{
		sender:  sender,
		adminID: adminID,
	}
}

func (e *ErrorManager) NotifyAdmin(ctx context.Context, panicValue interface{}, update *models.Update) {
	userInfo := "unknown"
	if update != nil {
		if update.Message != nil && update.Message.From != nil {
			userInfo = describeUser(update.Message.From)
		} else if update.CallbackQuery != nil && update.CallbackQuery.From.ID != 0 {
			userInfo = describeUser(&update.CallbackQuery.From)
		}
	}

	msg := fmt.Sprintf("🚨 Panic in onboarding handler\nUser: %s\nError: %v\n\nStack trace:\n%s",
		userInfo, panicValue, string(debug.Stack()))
	e.send(ctx, msg)
}

func (e *ErrorManager) NotifySendFailure(ctx context.Context, chatID int64, request interface{}, err error) {
	payload, marshalErr := json.MarshalIndent(request, "", "  ")
	if marshalErr != nil {
		payload = []byte(fmt.Sprintf("# Failed to serialize request: %v", marshalErr))
	}

	msg := fmt.Sprintf("❌ Failed to send message\nUser: [%d]\nError: %v\n\nRequest:\n%s",
		chatID, err, string(payload))
	e.send(ctx, msg)
}

func (e *ErrorManager) send(ctx context.Context, msg string) {
	if len(msg) > maxAdminMessageLen {
		msg = msg[:maxAdminMessageLen] + "\n... (truncated)"
	}
	if e.sender == nil || e.adminID == 0 {
		log.Printf("[ERROR] %s", msg)
		return
	}
	if _, err := e.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: e.adminID,
		Text:   msg,
	}); err != nil {
		log.Printf("[ERROR] Failed to notify admin: %v\n%s", err, msg)
	}
}

func describeUser(u *models.User) string {
	info := fmt.Sprintf("[%d]", u.ID)
	if u.FirstName != "" {
		info = u.FirstName + " " + info
	}
	if u.Username != "" {
		info = info + " @" + u.Username
	}
	return info
}
