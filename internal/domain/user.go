package domain

import (
	"strings"
	"time"
)

// User is an account that owns tags, ingredients, and recipes.
type User struct {
	ID               int64
	Email            string
	Name             string
	IsActive         bool
	IsStaff          bool
	PasswordVerifier string
	CreatedAt        time.Time
}

// Principal returns the request identity for u.
func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Email: u.Email, IsStaff: u.IsStaff}
}

// NormalizeEmail trims surrounding space and lowercases the domain part.
// The local part is left alone; "Test@EXAMPLE.com" becomes "Test@example.com".
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// Principal is the authenticated caller of a request. It is the only
// authorization input services consult.
type Principal struct {
	UserID  int64
	Email   string
	IsStaff bool
}

// Anonymous reports whether p carries no user.
func (p Principal) Anonymous() bool {
	return p.UserID <= 0
}
