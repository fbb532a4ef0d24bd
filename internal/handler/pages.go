package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/service"
	"github.com/sakif/social-feed/internal/session"
)

// Pages serves every HTML page of the client.
//
// DEPENDENCY CHAIN:
//   - accounts *service.AccountService → login, signup, profile changes
//   - posts    *service.PostService    → create, edit, publish, delete, vote
//   - feeds    *service.FeedService    → the paginated listings
//   - session  *session.Manager        → flash messages, confirmations, expand flags
//   - views    *Views                  → parsed templates
type Pages struct {
	accounts *service.AccountService
	posts    *service.PostService
	feeds    *service.FeedService
	session  *session.Manager
	views    *Views
	logger   *slog.Logger
	now      func() time.Time
}

// NewPages creates the page handlers. All dependencies are injected here.
func NewPages(
	accounts *service.AccountService,
	posts *service.PostService,
	feeds *service.FeedService,
	sess *session.Manager,
	views *Views,
	logger *slog.Logger,
) *Pages {
	return &Pages{
		accounts: accounts,
		posts:    posts,
		feeds:    feeds,
		session:  sess,
		views:    views,
		logger:   logger,
		now:      time.Now,
	}
}

// render adds the layout data every page needs and writes the page.
//
// The pending flash is popped here, before anything is written, so the
// session change is saved with this response.
func (p *Pages) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	ctx := r.Context()
	if data == nil {
		data = map[string]any{}
	}
	data["Authenticated"] = p.session.IsAuthenticated(ctx)
	data["CurrentPath"] = r.URL.Path
	if f, ok := p.session.PopFlash(ctx); ok {
		data["Flash"] = f
	}

	if err := p.views.Render(w, status, page, data); err != nil {
		p.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// =========================================================================
// ERROR MAPPING
// =========================================================================

// fail turns an error from a mutation into a flash message and a redirect.
//
//	ErrUnauthorized → the session is already gone; back to the login page
//	ErrNoToken      → end the session; back to the login page
//	anything known  → show its message on the page at back
//	anything else   → log it; show a generic message at back
func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if p.endSession(w, r, err) {
		return
	}
	p.session.SetFlash(r.Context(), session.FlashError, p.userMessage(err))
	seeOther(w, r, back)
}

// failPage is fail for GET requests: redirecting to the same page would
// loop, so the error is rendered instead.
func (p *Pages) failPage(w http.ResponseWriter, r *http.Request, err error) {
	if p.endSession(w, r, err) {
		return
	}

	status := http.StatusInternalServerError
	if errors.Is(err, apperror.ErrUnavailable) || errors.Is(err, apperror.ErrRejected) {
		status = http.StatusBadGateway
	}
	p.render(w, r, status, pageError, map[string]any{
		"Title":   "Error",
		"Message": p.userMessage(err),
		"Back":    r.URL.RequestURI(),
	})
}

// endSession handles the errors that log the user out. It reports whether
// it answered the request.
func (p *Pages) endSession(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		// The API client already wiped the session and left the
		// "Session expired" flash.
		seeOther(w, r, "/")
		return true
	case errors.Is(err, apperror.ErrNoToken):
		ctx := r.Context()
		_ = p.session.Logout(ctx)
		p.session.SetFlash(ctx, session.FlashError, apperror.Message(err, "Please login again."))
		seeOther(w, r, "/")
		return true
	}
	return false
}

func (p *Pages) userMessage(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return "That post is not loaded anymore. Refresh the page and try again."
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrRejected),
		errors.Is(err, apperror.ErrUnavailable),
		errors.Is(err, apperror.ErrForbidden),
		errors.Is(err, apperror.ErrConflict):
		return apperror.Message(err, "Request failed")
	}

	p.logger.Error("unexpected error", slog.String("error", err.Error()))
	return "Something went wrong. Please try again."
}

// formError extracts the error shown next to a form.
func formError(err error) *apperror.AppError {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &apperror.AppError{Err: err, Message: "Something went wrong. Please try again."}
}

// formStatus is the status of a page re-rendered with a form error.
func formStatus(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusBadGateway
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Status >= 400 {
		return appErr.Status
	}
	return http.StatusBadRequest
}

// =========================================================================
// REQUEST HELPERS
// =========================================================================

// seeOther is the redirect after every POST.
func seeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// returnPath is the page a form goes back to. Only known local pages are
// accepted, so the field cannot be used as an open redirect.
func returnPath(r *http.Request) string {
	back := r.FormValue("return")
	for _, sc := range feed.Screens {
		if back == sc.Path {
			return back
		}
	}
	if back == "/profile" || strings.HasPrefix(back, "/profile?") {
		return back
	}
	return feed.AllPosts.Path
}

// screenFor returns the listing screen served at path.
func screenFor(path string) feed.Screen {
	for _, sc := range feed.Screens {
		if sc.Path == path {
			return sc
		}
	}
	return feed.AllPosts
}

// postID reads the {id} route parameter.
func postID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func postAnchor(back string, id int) string {
	return back + "#post-" + strconv.Itoa(id)
}
