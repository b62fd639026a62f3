// internal/app/system/authutil/authutil.go
package authutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/coursehub/internal/domain/models"
	"golang.org/x/crypto/bcrypt"
)

// Password rules.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	BcryptCost        = 12
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrInvalidEmail     = errors.New("email address is not valid")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	ErrPasswordCommon   = errors.New("password is too common")
	ErrUsernameRequired = errors.New("username is required")
	ErrInvalidRole      = errors.New(`role must be "student", "instructor" or "both"`)
)

var commonPasswords = map[string]struct{}{
	"123456":    {},
	"1234567":   {},
	"12345678":  {},
	"123456789": {},
	"password":  {},
	"password1": {},
	"qwerty":    {},
	"qwerty123": {},
	"abc123":    {},
	"111111":    {},
	"letmein":   {},
	"welcome":   {},
	"iloveyou":  {},
	"admin":     {},
	"monkey":    {},
	"dragon":    {},
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks a new password against the length and
// common-password rules.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes the password rules for display to clients.
func PasswordRules() string {
	return fmt.Sprintf("Passwords must be %d to %d characters and not a commonly used password.",
		MinPasswordLength, MaxPasswordLength)
}

// IsValidEmail performs a shape check: one @, a non-empty local part and
// a dotted domain that neither starts nor ends with a dot.
func IsValidEmail(email string) bool {
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	at := strings.Index(email, "@")
	if at <= 0 || strings.Count(email, "@") != 1 {
		return false
	}
	domain := email[at+1:]
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return strings.Contains(domain, ".")
}

// Registration is a validated sign-up request.
type Registration struct {
	Username     string
	Email        string
	Role         string
	PasswordHash string
}

// RegisterInput is the raw sign-up data from a client.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// ValidateRegistration checks in and hashes its password. Role defaults
// to student.
func ValidateRegistration(in RegisterInput) (Registration, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return Registration{}, ErrEmailRequired
	}
	if !IsValidEmail(email) {
		return Registration{}, ErrInvalidEmail
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return Registration{}, ErrUsernameRequired
	}
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = models.RoleStudent
	}
	if !models.IsValidRole(role) {
		return Registration{}, ErrInvalidRole
	}
	if err := ValidatePassword(in.Password); err != nil {
		return Registration{}, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return Registration{}, err
	}
	return Registration{
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}, nil
}
