// Package validate holds the client-side checks that run before any request
// reaches the backend. A form that fails here never produces network traffic.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/social-feed/internal/apperror"
)

// MinPasswordLength is the shortest password the strength check accepts.
const MinPasswordLength = 8

// SpecialCharacters is the punctuation set that satisfies the symbol rule.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// emailPattern is deliberately loose: one "@", and a "." somewhere after it.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// passwordRule is one independently evaluated strength requirement.
type passwordRule struct {
	message string
	ok      func(string) bool
}

var (
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[` + regexp.QuoteMeta(SpecialCharacters) + `]`)
)

var passwordRules = []passwordRule{
	{"At least 8 characters", func(s string) bool { return utf8.RuneCountInString(s) >= MinPasswordLength }},
	{"One uppercase letter", upperPattern.MatchString},
	{"One lowercase letter", lowerPattern.MatchString},
	{"One number", digitPattern.MatchString},
	{"One special character", specialPattern.MatchString},
}

// CheckPasswordStrength returns the description of every rule the password
// breaks. Rules don't short-circuit, so a user sees all problems at once.
// An empty result means the password is acceptable.
func CheckPasswordStrength(password string) []string {
	var violations []string
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			violations = append(violations, rule.message)
		}
	}
	return violations
}

// Credentials checks a login form.
func Credentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return apperror.ValidationFailed("email", "Email and password required")
	}
	if !ValidEmail(email) {
		return apperror.ValidationFailed("email", "Invalid email format")
	}
	if violations := CheckPasswordStrength(password); len(violations) > 0 {
		return apperror.WeakPassword("password", violations)
	}
	return nil
}

// Signup checks the registration form.
func Signup(firstName, lastName, email, password, confirm string) error {
	for _, v := range []string{firstName, lastName, email, password, confirm} {
		if strings.TrimSpace(v) == "" {
			return apperror.ValidationFailed("", "All fields are required")
		}
	}
	if !ValidEmail(email) {
		return apperror.ValidationFailed("email", "Invalid email")
	}
	if password != confirm {
		return apperror.ValidationFailed("confirm_password", "Passwords do not match")
	}
	if violations := CheckPasswordStrength(password); len(violations) > 0 {
		return apperror.WeakPassword("password", violations)
	}
	return nil
}

// Post checks a post form. Title and content are compared after trimming.
func Post(title, content string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return apperror.ValidationFailed("title", "Title and content are required")
	}
	return nil
}

// Name checks the edit-profile form.
func Name(firstName, lastName string) error {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return apperror.ValidationFailed("first_name", "All fields are required")
	}
	return nil
}

// Email checks the change-email form.
func Email(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperror.ValidationFailed("email", "Email is required")
	}
	if !ValidEmail(email) {
		return apperror.ValidationFailed("email", "Invalid email")
	}
	return nil
}

// PasswordChange checks the change-password form.
func PasswordChange(current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return apperror.ValidationFailed("", "All fields are required")
	}
	if next != confirm {
		return apperror.ValidationFailed("confirm_password", "New passwords do not match")
	}
	if violations := CheckPasswordStrength(next); len(violations) > 0 {
		return apperror.WeakPassword("new_password", violations)
	}
	return nil
}

// AccountDeletion checks the final step of the delete-account flow.
func AccountDeletion(password string, acknowledged bool) error {
	if password == "" || !acknowledged {
		return apperror.ValidationFailed("password", "Enter your password and confirm that this action is irreversible")
	}
	return nil
}
