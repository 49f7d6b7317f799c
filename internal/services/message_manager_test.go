package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"pgregory.net/rapid"
)

type flakySender struct {
	attempts  int32
	failUntil int32
	sent      []*bot.SendMessageParams
	answered  []*bot.AnswerCallbackQueryParams
}

func (s *flakySender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	attempt := atomic.AddInt32(&s.attempts, 1)
	s.sent = append(s.sent, params)
	if attempt <= s.failUntil {
		return nil, errors.New("network error")
	}
	return &tgmodels.Message{ID: int(attempt)}, nil
}

func (s *flakySender) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	s.answered = append(s.answered, params)
	return true, nil
}

func TestMessageManagerRetry_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		failCount := rapid.IntRange(0, 3).Draw(rt, "failCount")
		sender := &flakySender{failUntil: int32(failCount)}
		manager := NewMessageManager(sender, NewErrorManager(nil, 0))

		msg, err := manager.SendWithRetry(context.Background(), &bot.SendMessageParams{
			ChatID: int64(rapid.IntRange(1, 1000000).Draw(rt, "chatID")),
			Text:   rapid.StringMatching(`[a-zA-Z ]{1,40}`).Draw(rt, "text"),
		})

		attempts := int(atomic.LoadInt32(&sender.attempts))
		if failCount < 2 {
			if err != nil || msg == nil {
				rt.Fatalf("expected success after %d failures, got %v", failCount, err)
			}
			if attempts != failCount+1 {
				rt.Fatalf("expected %d attempts, got %d", failCount+1, attempts)
			}
			return
		}
		if err == nil {
			rt.Fatalf("expected failure after %d failures", failCount)
		}
		if attempts != 2 {
			rt.Fatalf("expected exactly 2 attempts, got %d", attempts)
		}
	})
}

func TestMessageManager_FailureNotifiesAdmin(t *testing.T) {
	userSender := &flakySender{failUntil: 10}
	adminSender := &flakySender{}
	manager := NewMessageManager(userSender, NewErrorManager(adminSender, 99))

	if err := manager.SendScreen(context.Background(), 5, "hello", nil); err == nil {
		t.Fatal("expected error")
	}
	if len(adminSender.sent) != 1 {
		t.Fatalf("admin got %d messages, want 1", len(adminSender.sent))
	}
	report := adminSender.sent[0]
	if report.ChatID != int64(99) {
		t.Errorf("report sent to %v, want 99", report.ChatID)
	}
	if !strings.Contains(report.Text, "User: [5]") || !strings.Contains(report.Text, `"text": "hello"`) {
		t.Errorf("report = %q", report.Text)
	}
}

func TestMessageManager_SendScreenKeyboard(t *testing.T) {
	sender := &flakySender{}
	manager := NewMessageManager(sender, nil)

	if err := manager.SendScreen(context.Background(), 1, "plain", nil); err != nil {
		t.Fatal(err)
	}
	if sender.sent[0].ReplyMarkup != nil {
		t.Error("nil keyboard should leave ReplyMarkup unset")
	}

	keyboard := &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{{{Text: "Yes", CallbackData: "yes"}}},
	}
	if err := manager.SendScreen(context.Background(), 1, "buttons", keyboard); err != nil {
		t.Fatal(err)
	}
	if sender.sent[1].ReplyMarkup != keyboard {
		t.Error("keyboard was not attached")
	}
}

func TestMessageManager_AnswerCallback(t *testing.T) {
	sender := &flakySender{}
	manager := NewMessageManager(sender, nil)

	manager.AnswerCallback(context.Background(), "cb-1", "Resend available in 0:30")
	if len(sender.answered) != 1 {
		t.Fatalf("answered %d callbacks, want 1", len(sender.answered))
	}
	if sender.answered[0].CallbackQueryID != "cb-1" || sender.answered[0].Text != "Resend available in 0:30" {
		t.Errorf("answer = %+v", sender.answered[0])
	}
}

func TestErrorManager_NotifyAdminTruncates(t *testing.T) {
	sender := &flakySender{}
	manager := NewErrorManager(sender, 7)

	manager.NotifyAdmin(context.Background(), strings.Repeat("x", 5000), &tgmodels.Update{
		Message: &tgmodels.Message{From: &tgmodels.User{ID: 3, FirstName: "Asha", Username: "asha"}},
	})

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	text := sender.sent[0].Text
	if !strings.Contains(text, "Asha [3] @asha") {
		t.Errorf("report does not describe the user: %q", text[:200])
	}
	if !strings.HasSuffix(text, "... (truncated)") {
		t.Error("long report was not truncated")
	}
}
