package domain

import "time"

// User mirrors the persisted representation in the users table.
// PasswordCiphertext holds the portal password encrypted at rest; it is
// decrypted only for the duration of a login call.
type User struct {
	ID                 string
	Username           string
	PasswordCiphertext string
	Email              string
	AutoClock          bool
	SessionCookies     *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasSession reports whether a cookie snapshot from a previous
// authenticated session is stored for the user.
func (u User) HasSession() bool {
	return u.SessionCookies != nil && *u.SessionCookies != ""
}
