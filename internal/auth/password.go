package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordPolicy turns a password into its stored form and checks a login
// attempt against it.
type PasswordPolicy interface {
	Hash(password string) (string, error)
	Matches(stored, given string) bool
}

// PlainPasswords stores passwords verbatim and compares them exactly.
type PlainPasswords struct{}

func (PlainPasswords) Hash(password string) (string, error) {
	return password, nil
}

func (PlainPasswords) Matches(stored, given string) bool {
	return stored == given
}

type BcryptPasswords struct {
	Cost int
}

func (p BcryptPasswords) Hash(password string) (string, error) {
	cost := p.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (BcryptPasswords) Matches(stored, given string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
}

// PolicyFor maps the PASSWORD_MODE setting to a policy. Anything other than
// "bcrypt" means plain.
func PolicyFor(mode string) PasswordPolicy {
	if strings.EqualFold(strings.TrimSpace(mode), "bcrypt") {
		return BcryptPasswords{}
	}
	return PlainPasswords{}
}
