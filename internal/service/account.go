package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/validate"
)

// AccountService runs the login, signup and profile screens.
//
// Every method validates its input first. A validation error is returned
// before the backend is contacted, so invalid forms never produce traffic.
type AccountService struct {
	backend AccountBackend
	session AuthSession
	logger  *slog.Logger
}

func NewAccountService(backend AccountBackend, session AuthSession, logger *slog.Logger) *AccountService {
	return &AccountService{backend: backend, session: session, logger: logger}
}

// Login checks the form, exchanges the credentials for a token and marks the
// session authenticated.
func (s *AccountService) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validate.Credentials(email, password); err != nil {
		return err
	}

	tok, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := s.session.LoginSuccess(ctx, tok); err != nil {
		return fmt.Errorf("service/account: storing token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("email", email))
	return nil
}

// SignupForm is the registration form as submitted.
type SignupForm struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Signup creates an account. The user logs in afterwards on the login page.
func (s *AccountService) Signup(ctx context.Context, f SignupForm) error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	if err := validate.Signup(f.FirstName, f.LastName, f.Email, f.Password, f.ConfirmPassword); err != nil {
		return err
	}

	err := s.backend.Signup(ctx, model.Signup{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Password:  f.Password,
	})
	if err != nil {
		return err
	}

	s.logger.Info("account created", slog.String("email", f.Email))
	return nil
}

// CurrentUser fetches the logged-in user. Protected pages call it on every
// render so names and emails are never stale.
func (s *AccountService) CurrentUser(ctx context.Context) (model.User, error) {
	return s.backend.CurrentUser(ctx)
}

// UpdateName changes the user's first and last name.
func (s *AccountService) UpdateName(ctx context.Context, user model.User, firstName, lastName string) (model.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if err := validate.Name(firstName, lastName); err != nil {
		return user, err
	}

	updated, err := s.backend.UpdateUser(ctx, user.ID, model.UserUpdate{FirstName: firstName, LastName: lastName})
	if err != nil {
		return user, err
	}
	s.logger.Info("profile updated", slog.Int("userID", user.ID))
	return updated, nil
}

// ChangeEmail updates the login email. On success the session is ended and
// the user has to log in with the new address.
func (s *AccountService) ChangeEmail(ctx context.Context, user model.User, email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Email(email); err != nil {
		return err
	}
	if _, err := s.backend.UpdateUser(ctx, user.ID, model.UserUpdate{Email: email}); err != nil {
		return err
	}

	s.logger.Info("email changed", slog.Int("userID", user.ID))
	return s.logout(ctx)
}

// ChangePassword updates the password; the backend checks current. On
// success the session is ended.
func (s *AccountService) ChangePassword(ctx context.Context, user model.User, current, next, confirm string) error {
	if err := validate.PasswordChange(current, next, confirm); err != nil {
		return err
	}
	update := model.UserUpdate{Password: next, CurrentPassword: current}
	if _, err := s.backend.UpdateUser(ctx, user.ID, update); err != nil {
		return err
	}

	s.logger.Info("password changed", slog.Int("userID", user.ID))
	return s.logout(ctx)
}

// DeleteAccount deletes the user's account. acknowledged is true once the
// user confirmed that the deletion cannot be undone.
func (s *AccountService) DeleteAccount(ctx context.Context, user model.User, password string, acknowledged bool) error {
	if err := validate.AccountDeletion(password, acknowledged); err != nil {
		return err
	}
	if err := s.backend.DeleteUser(ctx, user.ID, password); err != nil {
		return err
	}

	s.logger.Info("account deleted", slog.Int("userID", user.ID))
	return s.logout(ctx)
}

// Logout ends the session.
func (s *AccountService) Logout(ctx context.Context) error {
	return s.logout(ctx)
}

func (s *AccountService) logout(ctx context.Context) error {
	if err := s.session.Logout(ctx); err != nil {
		return fmt.Errorf("service/account: ending session: %w", err)
	}
	return nil
}
