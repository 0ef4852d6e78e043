// Package auth provides password hashing, session token generation, and the
// credential checks behind registration and login.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"habit-tracker/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMissingFields is returned when username or password is blank.
	ErrMissingFields = errors.New("username and password are required")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUserNotFound is returned when the username does not exist.
	ErrUserNotFound = errors.New("username not found")
	// ErrBadPassword is returned when the password does not match.
	ErrBadPassword = errors.New("incorrect password")
)

// UserStore is the slice of storage the gate needs.
type UserStore interface {
	GetUserByUsername(username string) (*models.User, error)
	CreateUser(username, passwordHash string) (*models.User, error)
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateSessionToken returns a new random session token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Register creates a new user. It fails with ErrMissingFields when either
// field is blank and ErrUsernameTaken when the name is already in use. Only
// the bcrypt hash is ever stored.
func Register(store UserStore, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	if _, err := store.GetUserByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return store.CreateUser(username, hash)
}

// Authenticate verifies a username/password pair against the store. Failures
// distinguish an unknown username from a wrong password so callers can render
// the matching message.
func Authenticate(store UserStore, username, password string) (*models.User, error) {
	user, err := store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrBadPassword
	}
	return user, nil
}
