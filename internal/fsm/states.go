package fsm

import "github.com/ad/go-telegram-onboarding/internal/models"

const (
	ScreenPhoneNumber     = "phone_number"
	ScreenOTPVerification = "otp_verification"
	ScreenPanFirstName    = "pan_first_name"
	ScreenPanLastName     = "pan_last_name"
	ScreenPanConfirmation = "pan_confirmation"
	ScreenDone            = "done"
)

// StepOrdinal returns the funnel ordinal a screen reports when it is shown.
// Unknown screens map to 0.
func StepOrdinal(screen string) int {
	switch screen {
	case ScreenPhoneNumber:
		return models.StepPhoneVerification.Ordinal()
	case ScreenOTPVerification:
		return models.StepFetchMutualFunds.Ordinal()
	case ScreenPanFirstName, ScreenPanLastName, ScreenPanConfirmation:
		return models.StepKyc.Ordinal()
	case ScreenDone:
		return models.StepPledgeMutualFunds.Ordinal()
	default:
		return 0
	}
}

// ScreenForProgress picks the screen to resume on when no chat state was
// saved, based on what the progress store already recorded as complete.
func ScreenForProgress(state models.ProgressState) string {
	switch {
	case !state.Completion[models.StepPhoneVerification]:
		return ScreenPhoneNumber
	case !state.Completion[models.StepFetchMutualFunds]:
		return ScreenOTPVerification
	case !state.Completion[models.StepKyc]:
		return ScreenPanFirstName
	case state.CurrentStep < models.StepPledgeMutualFunds.Ordinal():
		return ScreenPanConfirmation
	default:
		return ScreenDone
	}
}
