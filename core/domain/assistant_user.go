package domain

import "time"

// ============================================================================
// USER MODEL
// ============================================================================

// User is a registered account holder.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	LinkedIn     string    `json:"linkedin" db:"linkedin"`
	GitHub       string    `json:"github" db:"github"`
	GoogleToken  []byte    `json:"-" db:"google_token"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserSettings are the profile fields a user may edit.
type UserSettings struct {
	Name     string `json:"name"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}
