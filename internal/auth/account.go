// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the work factor for stored password hashes.
	BcryptCost = 10
	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooLong    = fmt.Errorf("password longer than %d bytes", MaxPasswordBytes)
)

// Identity is the public view of an account.
type Identity struct {
	ID          string `json:"id"`
	CompanyName string `json:"companyName,omitempty"`
	Email       string `json:"email"`
}

// Account is a registered company with its password hash.
type Account struct {
	Identity
	PasswordHash string `json:"-"`
}

// AccountID derives a stable id from an email address so that register and
// login agree without a user table.
func AccountID(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+normalized)).String()
}

// NewAccount hashes password and returns the account for companyName/email.
func NewAccount(companyName, email, password string) (Account, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return Account{}, err
	}
	return Account{
		Identity: Identity{
			ID:          AccountID(email),
			CompanyName: strings.TrimSpace(companyName),
			Email:       strings.TrimSpace(email),
		},
		PasswordHash: hash,
	}, nil
}

// HashPassword returns the bcrypt hash of password, or ErrPasswordTooLong
// when bcrypt cannot hash all of it.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CredentialVerifier decides whether a login attempt is genuine.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (Identity, error)
}

// AcceptAll is the verifier used while no account store exists. It admits
// every well-formed login and logs a warning each time.
type AcceptAll struct{}

func (AcceptAll) Verify(_ context.Context, email, _ string) (Identity, error) {
	logrus.WithField("email", email).Warn("login accepted without credential verification")
	return Identity{ID: AccountID(email), Email: strings.TrimSpace(email)}, nil
}
