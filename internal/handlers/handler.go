package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ad/go-telegram-onboarding/internal/db"
	"github.com/ad/go-telegram-onboarding/internal/fsm"
	"github.com/ad/go-telegram-onboarding/internal/models"
	"github.com/ad/go-telegram-onboarding/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// BotHandler drives the onboarding screens over Telegram. Each screen reports
// its funnel ordinal to the user's ProgressStore when shown and marks its
// stage complete when the user confirms.
type BotHandler struct {
	errorManager  *services.ErrorManager
	msgManager    *services.MessageManager
	sessions      *services.ProgressSessions
	userRepo      *db.UserRepository
	chatStateRepo *db.ChatStateRepository
	settingsRepo  *db.SettingsRepository
	resendAfter   time.Duration
	now           func() time.Time
}

func NewBotHandler(
	errorManager *services.ErrorManager,
	msgManager *services.MessageManager,
	sessions *services.ProgressSessions,
	userRepo *db.UserRepository,
	chatStateRepo *db.ChatStateRepository,
	settingsRepo *db.SettingsRepository,
	resendAfter time.Duration,
) *BotHandler {
	return &BotHandler{
		errorManager:  errorManager,
		msgManager:    msgManager,
		sessions:      sessions,
		userRepo:      userRepo,
		chatStateRepo: chatStateRepo,
		settingsRepo:  settingsRepo,
		resendAfter:   resendAfter,
		now:           time.Now,
	}
}

func (h *BotHandler) HandleUpdate(ctx context.Context, _ *bot.Bot, update *tgmodels.Update) {
	defer h.recoverPanic(ctx, update)

	if update.Message != nil {
		h.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *BotHandler) recoverPanic(ctx context.Context, update *tgmodels.Update) {
	if r := recover(); r != nil {
		h.errorManager.NotifyAdmin(ctx, r, update)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *tgmodels.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	switch text {
	case "/start":
		h.handleStart(ctx, msg)
		return
	case "/progress":
		h.handleProgress(ctx, userID)
		return
	case "/reset":
		h.handleReset(ctx, userID)
		return
	}

	if text == "" {
		return
	}

	state := h.loadChatState(userID)
	switch state.Screen {
	case fsm.ScreenPhoneNumber:
		h.handlePhoneNumber(ctx, state, text)
	case fsm.ScreenOTPVerification:
		h.handleOTP(ctx, state, text)
	case fsm.ScreenPanFirstName:
		h.handleFirstName(ctx, state, text)
	case fsm.ScreenPanLastName:
		h.handleLastName(ctx, state, text)
	default:
		// Screens driven by buttons, or finished; show them again.
		h.showScreen(ctx, state, state.Screen)
	}
}

func (h *BotHandler) handleStart(ctx context.Context, msg *tgmodels.Message) {
	user := &models.User{
		ID:           msg.From.ID,
		FirstName:    msg.From.FirstName,
		LastName:     msg.From.LastName,
		Username:     msg.From.Username,
		LanguageCode: msg.From.LanguageCode,
	}
	if err := h.userRepo.CreateOrUpdate(user); err != nil {
		log.Printf("[HANDLER] Failed to save user %s: %v", user.DisplayName(), err)
	}

	settings, err := h.settingsRepo.Texts()
	if err == nil && settings.WelcomeMessage != "" {
		h.msgManager.SendScreen(ctx, user.ID, settings.WelcomeMessage, nil)
	}

	state := h.loadChatState(user.ID)
	h.showScreen(ctx, state, state.Screen)
}

func (h *BotHandler) handleProgress(ctx context.Context, userID int64) {
	snapshot := h.sessions.Get(userID).Snapshot()
	h.msgManager.SendScreen(ctx, userID, progressSummary(snapshot), nil)
}

func (h *BotHandler) handleReset(ctx context.Context, userID int64) {
	h.sessions.Get(userID).ResetProgress()
	if err := h.chatStateRepo.Clear(userID); err != nil {
		log.Printf("[HANDLER] Failed to clear chat state for %d: %v", userID, err)
	}
	h.showScreen(ctx, &models.ChatState{UserID: userID}, fsm.ScreenPhoneNumber)
}

func (h *BotHandler) handlePhoneNumber(ctx context.Context, state *models.ChatState, text string) {
	phone, err := services.NormalizePhoneNumber(text)
	if err != nil {
		h.msgManager.SendScreen(ctx, state.UserID, invalidInputMessage(err), nil)
		return
	}
	state.PhoneNumber = phone
	state.OTPSentAt = nil
	h.confirm(ctx, state, models.StepPhoneVerification, fsm.ScreenOTPVerification)
}

func (h *BotHandler) handleOTP(ctx context.Context, state *models.ChatState, text string) {
	if _, err := services.NormalizeOTP(text); err != nil {
		h.msgManager.SendScreen(ctx, state.UserID, invalidInputMessage(err), nil)
		return
	}
	h.confirm(ctx, state, models.StepFetchMutualFunds, fsm.ScreenPanFirstName)
}

func (h *BotHandler) handleFirstName(ctx context.Context, state *models.ChatState, text string) {
	name, err := services.NormalizeName(text)
	if err != nil {
		h.msgManager.SendScreen(ctx, state.UserID, invalidInputMessage(err), nil)
		return
	}
	state.FirstName = name
	h.showScreen(ctx, state, fsm.ScreenPanLastName)
}

func (h *BotHandler) handleLastName(ctx context.Context, state *models.ChatState, text string) {
	name, err := services.NormalizeName(text)
	if err != nil {
		h.msgManager.SendScreen(ctx, state.UserID, invalidInputMessage(err), nil)
		return
	}
	state.LastName = name
	h.confirm(ctx, state, models.StepKyc, fsm.ScreenPanConfirmation)
}

func (h *BotHandler) handleCallback(ctx context.Context, callback *tgmodels.CallbackQuery) {
	userID := callback.From.ID
	state := h.loadChatState(userID)

	switch callback.Data {
	case callbackPanYes, callbackPanNo:
		if state.Screen != fsm.ScreenPanConfirmation {
			h.msgManager.AnswerCallback(ctx, callback.ID, "This step is already done")
			return
		}
		h.msgManager.AnswerCallback(ctx, callback.ID, "")
		if callback.Data == callbackPanYes {
			h.showScreen(ctx, state, fsm.ScreenDone)
			return
		}
		state.FirstName = ""
		state.LastName = ""
		h.showScreen(ctx, state, fsm.ScreenPanFirstName)
	case callbackOTPResend:
		h.handleResend(ctx, callback, state)
	default:
		h.msgManager.AnswerCallback(ctx, callback.ID, "")
	}
}

func (h *BotHandler) handleResend(ctx context.Context, callback *tgmodels.CallbackQuery, state *models.ChatState) {
	if state.Screen != fsm.ScreenOTPVerification {
		h.msgManager.AnswerCallback(ctx, callback.ID, "This step is already done")
		return
	}

	now := h.now()
	if state.OTPSentAt != nil {
		if wait := services.ResendWait(*state.OTPSentAt, now, h.resendAfter); wait > 0 {
			h.msgManager.AnswerCallback(ctx, callback.ID, "Resend available in "+services.FormatCountdown(wait))
			return
		}
	}

	state.OTPSentAt = &now
	h.msgManager.AnswerCallback(ctx, callback.ID, "A new code has been sent")
	h.showScreen(ctx, state, fsm.ScreenOTPVerification)
}

// confirm marks the current stage complete and moves on to the next screen.
func (h *BotHandler) confirm(ctx context.Context, state *models.ChatState, step models.StepID, next string) {
	if err := h.sessions.Get(state.UserID).CompleteStep(step); err != nil {
		log.Printf("[PROGRESS] Failed to complete %s for %d: %v", step, state.UserID, err)
	}
	h.showScreen(ctx, state, next)
}

func (h *BotHandler) showScreen(ctx context.Context, state *models.ChatState, screen string) {
	store := h.sessions.Get(state.UserID)
	if fsm.StepOrdinal(screen) == 0 {
		screen = fsm.ScreenForProgress(store.Snapshot())
	}

	if err := store.SetCurrentStep(fsm.StepOrdinal(screen)); err != nil {
		log.Printf("[PROGRESS] Failed to set step for %d on %s: %v", state.UserID, screen, err)
	}

	state.Screen = screen
	if screen == fsm.ScreenOTPVerification && state.OTPSentAt == nil {
		now := h.now()
		state.OTPSentAt = &now
	}
	if err := h.chatStateRepo.Save(state); err != nil {
		log.Printf("[HANDLER] Failed to save chat state for %d: %v", state.UserID, err)
	}

	var finalMessage string
	if screen == fsm.ScreenDone {
		if settings, err := h.settingsRepo.Texts(); err == nil {
			finalMessage = settings.FinalMessage
		}
	}

	text, keyboard := screenPrompt(screen, state, finalMessage)
	text += "\n\n" + services.RenderProgressBar(store.ProgressFraction(), store.TotalSteps())
	if err := h.msgManager.SendScreen(ctx, state.UserID, text, keyboard); err != nil {
		log.Printf("[HANDLER] Failed to send %s screen to %d: %v", screen, state.UserID, err)
	}
}

// loadChatState falls back to the screen implied by recorded progress when no
// chat state is stored, it cannot be read, or it points past what the
// progress store has recorded (for example after unreadable progress was
// discarded).
func (h *BotHandler) loadChatState(userID int64) *models.ChatState {
	resume := fsm.ScreenForProgress(h.sessions.Get(userID).Snapshot())

	state, err := h.chatStateRepo.Get(userID)
	if err == nil {
		ordinal := fsm.StepOrdinal(state.Screen)
		if ordinal != 0 && ordinal <= fsm.StepOrdinal(resume) {
			return state
		}
		if ordinal != 0 {
			log.Printf("[HANDLER] Chat state for %d is on %s ahead of progress, restarting at %s", userID, state.Screen, resume)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("[HANDLER] Failed to load chat state for %d: %v", userID, err)
	}

	return &models.ChatState{
		UserID: userID,
		Screen: resume,
	}
}
