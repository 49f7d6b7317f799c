package models

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
	CreatedAt    time.Time
}

// DisplayName renders the user for admin reports, e.g. "Asha Rao @asha [42]".
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.Username != "" {
		name = strings.TrimSpace(name + " @" + u.Username)
	}
	if name == "" {
		return fmt.Sprintf("[%d]", u.ID)
	}
	return fmt.Sprintf("%s [%d]", name, u.ID)
}
