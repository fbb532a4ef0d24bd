package devapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/auth"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/validate"
)

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

const notAuthorized = "Not authorized to perform requested action"

// HandleLogin implements the OAuth2 password grant.
//
// HTTP: POST /login (application/x-www-form-urlencoded)
// FORM: grant_type=password&username=<email>&password=<password>
//
// A wrong email and a wrong password get the same 403 so the answer does not
// reveal which accounts exist.
func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		a.writeError(w, r, apperror.ValidationFailed("", "invalid form body"))
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if email == "" {
		a.writeError(w, r, apperror.ValidationFailed("username", "field required"))
		return
	}
	if password == "" {
		a.writeError(w, r, apperror.ValidationFailed("password", "field required"))
		return
	}

	rec, err := a.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			a.writeError(w, r, apperror.Forbidden("Invalid Credentials"))
			return
		}
		a.writeError(w, r, err)
		return
	}
	if err := a.passwords.Verify(rec.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			a.writeError(w, r, apperror.Forbidden("Invalid Credentials"))
			return
		}
		a.writeError(w, r, err)
		return
	}

	token, err := a.tokens.Generate(rec.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.Info("user logged in", slog.Int("user_id", rec.ID))
	writeJSON(w, http.StatusCreated, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// HandleCreateUser registers an account.
//
// HTTP: POST /users
// REQUEST BODY: {"first_name", "last_name", "email", "password"}
func (a *API) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in model.Signup
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)

	required := []struct{ field, value string }{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"email", in.Email},
		{"password", in.Password},
	}
	for _, f := range required {
		if f.value == "" {
			a.writeError(w, r, apperror.ValidationFailed(f.field, "field required"))
			return
		}
	}
	if !validate.ValidEmail(in.Email) {
		a.writeError(w, r, apperror.ValidationFailed("email", "value is not a valid email address"))
		return
	}

	hash, err := a.passwords.Hash(in.Password)
	if err != nil {
		a.writeError(w, r, apperror.ValidationFailed("password", err.Error()))
		return
	}

	user, err := a.store.CreateUser(r.Context(), in, hash)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.Info("user created", slog.Int("user_id", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

// HandleCurrentUser returns the account behind the bearer token.
//
// HTTP: GET /users/profile/me
func (a *API) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	rec, err := a.store.GetUserByID(r.Context(), currentUser(r))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// The token outlived its account.
			a.writeError(w, r, apperror.Unauthorized("Could not validate credentials"))
			return
		}
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.User)
}

// HandleUpdateUser applies a partial update to the caller's own account.
//
// HTTP: PATCH /users/{id}
// REQUEST BODY: any of first_name, last_name, email, password; a new password
// needs current_password too.
func (a *API) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := a.ownAccount(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var in model.UserUpdate
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)

	if in.Email != "" && !validate.ValidEmail(in.Email) {
		a.writeError(w, r, apperror.ValidationFailed("email", "value is not a valid email address"))
		return
	}

	var hash string
	if in.Password != "" {
		if in.CurrentPassword == "" {
			a.writeError(w, r, apperror.ValidationFailed("current_password", "field required"))
			return
		}
		if err := a.checkPassword(r, id, in.CurrentPassword); err != nil {
			a.writeError(w, r, err)
			return
		}
		if hash, err = a.passwords.Hash(in.Password); err != nil {
			a.writeError(w, r, apperror.ValidationFailed("password", err.Error()))
			return
		}
	}

	user, err := a.store.UpdateUser(r.Context(), id, in, hash)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDeleteUser removes the caller's account after checking the password.
// Their posts and votes go with it.
//
// HTTP: DELETE /users/{id}
// REQUEST BODY: {"password": "..."}
func (a *API) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := a.ownAccount(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var in model.AccountDeletion
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	if in.Password == "" {
		a.writeError(w, r, apperror.ValidationFailed("password", "field required"))
		return
	}
	if err := a.checkPassword(r, id, in.Password); err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.store.DeleteUser(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.Info("user deleted", slog.Int("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// ownAccount returns the {id} of the request when it is the caller's own.
func (a *API) ownAccount(r *http.Request) (int, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, err
	}
	if id != currentUser(r) {
		return 0, apperror.Forbidden(notAuthorized)
	}
	return id, nil
}

// checkPassword verifies password against the stored hash of user id.
func (a *API) checkPassword(r *http.Request, id int, password string) error {
	rec, err := a.store.GetUserByID(r.Context(), id)
	if err != nil {
		return err
	}
	if err := a.passwords.Verify(rec.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.Forbidden("Incorrect password")
		}
		return err
	}
	return nil
}
