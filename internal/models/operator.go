package models

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// DefaultPassword is hashed into the store on first run when no operator
// password has been set yet.
const DefaultPassword = "admin123"

// MinPasswordLength is the shortest password ChangePassword accepts.
const MinPasswordLength = 6

var (
	// ErrEmptyPassword is returned when a required password field is blank.
	ErrEmptyPassword = errors.New("password is required")

	// ErrWrongPassword is returned when the entered password's digest does not
	// match the stored digest.
	ErrWrongPassword = errors.New("wrong password")

	// ErrPasswordTooShort is returned when a new password is under MinPasswordLength.
	ErrPasswordTooShort = errors.New("password is too short")

	// ErrPasswordConfirmation is returned when the new password and its
	// confirmation differ.
	ErrPasswordConfirmation = errors.New("passwords do not match")
)

// HashPassword returns the lowercase hex SHA-256 digest of password. There is
// no salt and no stretching: the gate keeps casual visitors out of the editor
// and nothing more. Anyone who can read the database can brute-force it.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// InitializePassword stores the digest of DefaultPassword when no operator
// password exists yet. It reports whether the default was written.
func InitializePassword(db *sql.DB) (bool, error) {
	_, err := GetValue(db, KeyPasswordHash)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	if err := SetValue(db, KeyPasswordHash, HashPassword(DefaultPassword)); err != nil {
		return false, fmt.Errorf("models: initialize password: %w", err)
	}
	return true, nil
}

// Authenticate compares the digest of the entered password with the stored
// digest. String equality of the two digests is the only criterion.
func Authenticate(db *sql.DB, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}

	stored, err := GetValue(db, KeyPasswordHash)
	if errors.Is(err, ErrNotFound) {
		return ErrWrongPassword
	}
	if err != nil {
		return err
	}

	if HashPassword(password) != stored {
		return ErrWrongPassword
	}
	return nil
}

// ChangePassword validates the new password against the policy and
// overwrites the stored digest.
func ChangePassword(db *sql.DB, newPassword, confirm string) error {
	if newPassword == "" || confirm == "" {
		return ErrEmptyPassword
	}
	if len([]rune(newPassword)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if newPassword != confirm {
		return ErrPasswordConfirmation
	}

	if err := SetValue(db, KeyPasswordHash, HashPassword(newPassword)); err != nil {
		return fmt.Errorf("models: change password: %w", err)
	}
	return nil
}
