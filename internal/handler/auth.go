package handler

import (
	"net/http"

	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/service"
	"github.com/sakif/social-feed/internal/session"
)

// HandleLoginPage shows the login form.
//
// HTTP: GET /
//
// A visitor who is already logged in goes straight to the feed.
func (p *Pages) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if p.session.IsAuthenticated(ctx) {
		http.Redirect(w, r, feed.AllPosts.Path, http.StatusSeeOther)
		return
	}
	p.session.Init(ctx)

	p.render(w, r, http.StatusOK, pageLogin, map[string]any{
		"Title": "Login",
	})
}

// HandleLogin exchanges the submitted credentials for a token.
//
// HTTP: POST /
// FORM: email, password
//
// Every failure re-renders the form with the message next to it. A weak
// password lists each missing rule.
func (p *Pages) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	if err := p.accounts.Login(r.Context(), email, password); err != nil {
		p.render(w, r, formStatus(err), pageLogin, map[string]any{
			"Title":     "Login",
			"Email":     email,
			"FormError": formError(err),
		})
		return
	}

	p.session.SetFlash(r.Context(), session.FlashSuccess, "Login successful")
	seeOther(w, r, feed.AllPosts.Path)
}

// HandleSignupPage shows the registration form.
//
// HTTP: GET /signup
func (p *Pages) HandleSignupPage(w http.ResponseWriter, r *http.Request) {
	if p.session.IsAuthenticated(r.Context()) {
		http.Redirect(w, r, feed.AllPosts.Path, http.StatusSeeOther)
		return
	}

	p.render(w, r, http.StatusOK, pageSignup, map[string]any{
		"Title": "Sign up",
		"Form":  service.SignupForm{},
	})
}

// HandleSignup creates the account and sends the user to the login page.
//
// HTTP: POST /signup
// FORM: first_name, last_name, email, password, confirm_password
func (p *Pages) HandleSignup(w http.ResponseWriter, r *http.Request) {
	form := service.SignupForm{
		FirstName:       r.PostFormValue("first_name"),
		LastName:        r.PostFormValue("last_name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}

	if err := p.accounts.Signup(r.Context(), form); err != nil {
		// Never echo passwords back into the page.
		form.Password, form.ConfirmPassword = "", ""
		p.render(w, r, formStatus(err), pageSignup, map[string]any{
			"Title":     "Sign up",
			"Form":      form,
			"FormError": formError(err),
		})
		return
	}

	p.session.SetFlash(r.Context(), session.FlashSuccess, "Account created. Please login.")
	seeOther(w, r, "/")
}

// HandleLogout ends the session.
//
// HTTP: POST /logout
//
// The whole session is destroyed, so no key of the old session (token,
// loaded posts, filters) survives. The flash lives in a fresh session.
func (p *Pages) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := p.accounts.Logout(ctx); err != nil {
		p.fail(w, r, err, feed.AllPosts.Path)
		return
	}

	p.session.SetFlash(ctx, session.FlashInfo, "You have been signed out.")
	seeOther(w, r, "/")
}
