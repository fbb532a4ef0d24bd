package handler

import (
	"context"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/service"
	"github.com/sakif/social-feed/internal/session"
)

// postView is one post card as the template sees it.
type postView struct {
	ID           int
	Title        string
	Body         string // preview or full content
	Truncated    bool   // content is longer than the preview
	Expanded     bool
	Draft        bool
	Author       string
	Age          string // "3 minutes ago", or the raw timestamp
	CreatedAt    string
	Votes        int
	UserVoted    bool
	IsOwner      bool
	ConfirmNonce string // set while a delete of this post awaits confirmation
}

// HandleScreen renders a listing screen (the feed or "my posts").
//
// HTTP: GET /feed, GET /my-posts
// QUERY: apply=1 with search, sort, drafts replaces the screen's filters
//
// The first visit after a reset fetches page one; later visits render what
// the session already holds.
func (p *Pages) HandleScreen(sc feed.Screen) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user, err := p.accounts.CurrentUser(ctx)
		if err != nil {
			p.failPage(w, r, err)
			return
		}

		var filters *feed.Filters
		if q := r.URL.Query(); q.Has("apply") {
			f := sc.FiltersFromQuery(q)
			filters = &f
		}

		page, err := p.feeds.Load(ctx, sc, filters)
		if err != nil {
			p.failPage(w, r, err)
			return
		}
		p.renderScreen(w, r, http.StatusOK, user, page, service.PostForm{Published: true}, nil)
	}
}

// HandleLoadMore fetches the next batch of a screen.
//
// HTTP: POST /feed/more, POST /my-posts/more
func (p *Pages) HandleLoadMore(sc feed.Screen) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := p.feeds.LoadMore(r.Context(), sc); err != nil {
			p.fail(w, r, err, sc.Path)
			return
		}
		seeOther(w, r, sc.Path)
	}
}

// rerenderScreen shows a screen again with a rejected create form filled in.
func (p *Pages) rerenderScreen(w http.ResponseWriter, r *http.Request, sc feed.Screen, form service.PostForm, formErr error) {
	ctx := r.Context()
	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, sc.Path)
		return
	}
	page, err := p.feeds.Load(ctx, sc, nil)
	if err != nil {
		p.fail(w, r, err, sc.Path)
		return
	}
	p.renderScreen(w, r, formStatus(formErr), user, page, form, formErr)
}

func (p *Pages) renderScreen(w http.ResponseWriter, r *http.Request, status int, user model.User, page service.Page, form service.PostForm, formErr error) {
	data := map[string]any{
		"Title": page.Screen.Title,
		"User":  user,
		"Page":  page,
		"Posts": p.postViews(r.Context(), user, page),
		"Sorts": feed.Sorts,
		"Form":  form,
	}
	if formErr != nil {
		data["FormError"] = formError(formErr)
	}
	p.render(w, r, status, pageFeed, data)
}

func (p *Pages) postViews(ctx context.Context, user model.User, page service.Page) []postView {
	expanded := p.session.Expanded(ctx)
	pending, hasPending := p.session.PendingConfirm(ctx)

	views := make([]postView, 0, len(page.Items))
	for _, item := range page.Items {
		post := item.Post
		v := postView{
			ID:        post.ID,
			Title:     post.Title,
			Expanded:  expanded[post.ID],
			Draft:     post.IsDraft(),
			Author:    author(post.Owner),
			Age:       p.timeAgo(post.CreatedAt),
			CreatedAt: post.CreatedAt.Raw,
			Votes:     item.Votes,
			UserVoted: item.UserVoted,
			IsOwner:   post.OwnerID == user.ID,
		}

		v.Body, v.Truncated = preview(post.Content, page.Screen.PreviewLimit)
		if v.Expanded {
			v.Body = post.Content
		}
		if hasPending && v.IsOwner && pending.Matches(session.ActionDeletePost, post.ID) {
			v.ConfirmNonce = pending.Nonce
		}
		views = append(views, v)
	}
	return views
}

func (p *Pages) timeAgo(ts model.Timestamp) string {
	if ts.IsZero() {
		return ts.Raw
	}
	return humanize.RelTime(ts.Time, p.now(), "ago", "from now")
}

func author(o model.Owner) string {
	if name := o.FullName(); name != "" {
		return name
	}
	if o.Email != "" {
		return o.Email
	}
	return "Unknown author"
}
