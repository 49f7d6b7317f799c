package models

type StepID string

const (
	StepPhoneVerification StepID = "phoneVerification"
	StepFetchMutualFunds  StepID = "fetchMutualFunds"
	StepKyc               StepID = "kyc"
	StepPledgeMutualFunds StepID = "pledgeMutualFunds"
	StepBankAccount       StepID = "bankAccount"
	StepESign             StepID = "eSign"
)

// Funnel is the fixed order of onboarding stages. Position i holds the stage
// shown at ordinal i+1.
var Funnel = []StepID{
	StepPhoneVerification,
	StepFetchMutualFunds,
	StepKyc,
	StepPledgeMutualFunds,
	StepBankAccount,
	StepESign,
}

// TotalSteps is the number of stages in Funnel.
func TotalSteps() int {
	return len(Funnel)
}

func (id StepID) IsValid() bool {
	return id.Ordinal() > 0
}

// Ordinal returns the 1-based position of id in Funnel, or 0 if id is unknown.
func (id StepID) Ordinal() int {
	for i, s := range Funnel {
		if s == id {
			return i + 1
		}
	}
	return 0
}

func (id StepID) Title() string {
	switch id {
	case StepPhoneVerification:
		return "Phone verification"
	case StepFetchMutualFunds:
		return "Fetch mutual funds"
	case StepKyc:
		return "KYC"
	case StepPledgeMutualFunds:
		return "Pledge mutual funds"
	case StepBankAccount:
		return "Bank account"
	case StepESign:
		return "eSign"
	default:
		return string(id)
	}
}

// StepAt returns the stage shown at the given 1-based ordinal.
func StepAt(ordinal int) (StepID, bool) {
	if ordinal < 1 || ordinal > len(Funnel) {
		return "", false
	}
	return Funnel[ordinal-1], true
}
