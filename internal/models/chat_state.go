package models

import "time"

type ChatState struct {
	UserID      int64
	Screen      string
	PhoneNumber string
	FirstName   string
	LastName    string
	OTPSentAt   *time.Time
}

func (c *ChatState) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
