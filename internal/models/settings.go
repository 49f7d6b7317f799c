package models

// Texts seeded into a new database.
const (
	DefaultWelcomeMessage = "Welcome! Let's get your account set up."
	DefaultFinalMessage   = "Your PAN is confirmed. Continue in the app to pledge your mutual funds."
)

type Settings struct {
	WelcomeMessage string
	FinalMessage   string
}
