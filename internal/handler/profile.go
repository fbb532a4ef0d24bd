package handler

import (
	"errors"
	"net/http"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/session"
)

// Profile tabs.
const (
	tabProfile  = "profile"
	tabEdit     = "edit"
	tabEmail    = "email"
	tabPassword = "password"
	tabDelete   = "delete"
)

type profileTab struct {
	Key   string
	Label string
}

var profileTabs = []profileTab{
	{tabProfile, "Profile"},
	{tabEdit, "Edit Profile"},
	{tabEmail, "Update Email"},
	{tabPassword, "Update Password"},
	{tabDelete, "Delete Account"},
}

func parseTab(s string) string {
	for _, t := range profileTabs {
		if t.Key == s {
			return s
		}
	}
	return tabProfile
}

func (p *Pages) renderProfile(w http.ResponseWriter, r *http.Request, status int, user model.User, tab string, formErr error) {
	data := map[string]any{
		"Title": "Profile",
		"User":  user,
		"Tab":   tab,
		"Tabs":  profileTabs,
	}
	if formErr != nil {
		data["FormError"] = formError(formErr)
	}
	if tab == tabDelete {
		if c, ok := p.session.PendingConfirm(r.Context()); ok && c.Matches(session.ActionDeleteAccount, user.ID) {
			data["ConfirmNonce"] = c.Nonce
		}
	}
	p.render(w, r, status, pageProfile, data)
}

// HandleProfile shows one tab of the profile page.
//
// HTTP: GET /profile?tab=profile|edit|email|password|delete
func (p *Pages) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := p.accounts.CurrentUser(r.Context())
	if err != nil {
		p.failPage(w, r, err)
		return
	}
	p.renderProfile(w, r, http.StatusOK, user, parseTab(r.URL.Query().Get("tab")), nil)
}

// HandleUpdateProfile changes the user's name.
//
// HTTP: POST /profile
// FORM: first_name, last_name
func (p *Pages) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, "/profile")
		return
	}

	if _, err := p.accounts.UpdateName(ctx, user, r.PostFormValue("first_name"), r.PostFormValue("last_name")); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			p.renderProfile(w, r, formStatus(err), user, tabEdit, err)
			return
		}
		p.fail(w, r, err, "/profile?tab="+tabEdit)
		return
	}

	p.session.SetFlash(ctx, session.FlashSuccess, "Profile updated")
	seeOther(w, r, "/profile")
}

// HandleUpdateEmail changes the login email and logs the user out.
//
// HTTP: POST /profile/email
// FORM: email
func (p *Pages) HandleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, "/profile")
		return
	}

	if err := p.accounts.ChangeEmail(ctx, user, r.PostFormValue("email")); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			p.renderProfile(w, r, formStatus(err), user, tabEmail, err)
			return
		}
		p.fail(w, r, err, "/profile?tab="+tabEmail)
		return
	}

	p.session.SetFlash(ctx, session.FlashSuccess, "Email updated. Please login again.")
	seeOther(w, r, "/")
}

// HandleUpdatePassword changes the password and logs the user out.
//
// HTTP: POST /profile/password
// FORM: current_password, new_password, confirm_password
func (p *Pages) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, "/profile")
		return
	}

	err = p.accounts.ChangePassword(ctx, user,
		r.PostFormValue("current_password"),
		r.PostFormValue("new_password"),
		r.PostFormValue("confirm_password"),
	)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			p.renderProfile(w, r, formStatus(err), user, tabPassword, err)
			return
		}
		p.fail(w, r, err, "/profile?tab="+tabPassword)
		return
	}

	p.session.SetFlash(ctx, session.FlashSuccess, "Password updated successfully, please login again")
	seeOther(w, r, "/")
}

// HandleDeleteAccount is step one of deleting the account: the user ticks
// "I understand that this action is irreversible". The password is asked
// for on the next step.
//
// HTTP: POST /profile/delete
// FORM: acknowledge
func (p *Pages) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, "/profile")
		return
	}

	if r.PostFormValue("acknowledge") == "" {
		err := apperror.ValidationFailed("acknowledge", "Confirm that this action is irreversible to continue")
		p.renderProfile(w, r, formStatus(err), user, tabDelete, err)
		return
	}

	p.session.BeginConfirm(ctx, session.ActionDeleteAccount, user.ID)
	seeOther(w, r, "/profile?tab="+tabDelete)
}

// HandleConfirmDeleteAccount deletes the account.
//
// HTTP: POST /profile/delete/confirm
// FORM: nonce, password
//
// The acknowledgement counts only when the nonce matches the pending
// confirmation from step one. A failure that leaves the account in place
// re-opens the confirmation so the user can retry the password.
func (p *Pages) HandleConfirmDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, "/profile")
		return
	}

	acknowledged := p.session.ConsumeConfirm(ctx, session.ActionDeleteAccount, user.ID, r.PostFormValue("nonce"))
	err = p.accounts.DeleteAccount(ctx, user, r.PostFormValue("password"), acknowledged)
	if err != nil {
		if acknowledged && !isSessionError(err) {
			p.session.BeginConfirm(ctx, session.ActionDeleteAccount, user.ID)
		}
		if errors.Is(err, apperror.ErrValidation) {
			p.renderProfile(w, r, formStatus(err), user, tabDelete, err)
			return
		}
		p.fail(w, r, err, "/profile?tab="+tabDelete)
		return
	}

	p.session.SetFlash(ctx, session.FlashSuccess, "Account deleted")
	seeOther(w, r, "/")
}

func isSessionError(err error) bool {
	return errors.Is(err, apperror.ErrUnauthorized) || errors.Is(err, apperror.ErrNoToken)
}
