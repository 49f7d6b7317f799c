package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ad/go-telegram-onboarding/internal/fsm"
	"github.com/ad/go-telegram-onboarding/internal/models"
	"github.com/ad/go-telegram-onboarding/internal/services"
	tgmodels "github.com/go-telegram/bot/models"
)

const (
	callbackPanYes    = "pan_confirm:yes"
	callbackPanNo     = "pan_confirm:no"
	callbackOTPResend = "otp:resend"
)

// screenPrompt renders the text and buttons for a screen.
func screenPrompt(screen string, state *models.ChatState, finalMessage string) (string, *tgmodels.InlineKeyboardMarkup) {
	switch screen {
	case fsm.ScreenPhoneNumber:
		return "📱 Enter your phone number\nWe'll send you a 6 digit code to verify it.", nil
	case fsm.ScreenOTPVerification:
		return fmt.Sprintf("🔐 Enter your 6 digit OTP\nSent to %s", maskPhone(state.PhoneNumber)),
			&tgmodels.InlineKeyboardMarkup{
				InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
					{{Text: "Resend code", CallbackData: callbackOTPResend}},
				},
			}
	case fsm.ScreenPanFirstName:
		return "🪪 Enter your name as per PAN\nFirst name:", nil
	case fsm.ScreenPanLastName:
		return "Last name:", nil
	case fsm.ScreenPanConfirmation:
		return fmt.Sprintf("Is this your PAN?\n\nName: %s", state.FullName()),
			&tgmodels.InlineKeyboardMarkup{
				InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
					{
						{Text: "No", CallbackData: callbackPanNo},
						{Text: "Yes", CallbackData: callbackPanYes},
					},
				},
			}
	case fsm.ScreenDone:
		if finalMessage == "" {
			finalMessage = models.DefaultFinalMessage
		}
		return "✅ " + finalMessage, nil
	default:
		return "", nil
	}
}

func invalidInputMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidPhoneNumber):
		return "Please enter a 10 digit phone number."
	case errors.Is(err, services.ErrInvalidOTP):
		return "Please enter the 6 digit code."
	case errors.Is(err, services.ErrEmptyName):
		return "Name can't be empty."
	default:
		return "Something went wrong, please try again."
	}
}

// maskPhone keeps the last four digits: 9876543210 -> ******3210.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func progressSummary(state models.ProgressState) string {
	var sb strings.Builder
	fraction := float64(state.CurrentStep) / float64(state.TotalSteps)
	fmt.Fprintf(&sb, "Step %d of %d, %d confirmed\n%s\n", state.CurrentStep, state.TotalSteps, state.CompletedCount(),
		services.RenderProgressBar(fraction, state.TotalSteps))
	for _, id := range models.Funnel {
		mark := "⬜"
		if state.Completion[id] {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "\n%s %s", mark, id.Title())
	}
	return sb.String()
}
