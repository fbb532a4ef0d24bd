package handler

import (
	"errors"
	"net/http"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/service"
	"github.com/sakif/social-feed/internal/session"
)

func postForm(r *http.Request) service.PostForm {
	return service.PostForm{
		Title:     r.PostFormValue("title"),
		Content:   r.PostFormValue("content"),
		Published: r.PostFormValue("published") != "",
	}
}

// HandleCreatePost creates a post from the composer on a listing screen.
//
// HTTP: POST /posts
// FORM: title, content, published, return
//
// A form that fails validation is shown again with the error and the typed
// text; nothing is sent to the backend.
func (p *Pages) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	back := returnPath(r)
	form := postForm(r)

	if _, err := p.posts.Create(r.Context(), form); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			p.rerenderScreen(w, r, screenFor(back), form, err)
			return
		}
		p.fail(w, r, err, back)
		return
	}

	p.session.SetFlash(r.Context(), session.FlashSuccess, "Post created")
	seeOther(w, r, back)
}

// HandleEditPage shows the edit form of an owned post.
//
// HTTP: GET /posts/{id}/edit?return=/feed
//
// The post comes from the loaded listings; the backend has no endpoint
// for a single post.
func (p *Pages) HandleEditPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnPath(r)
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.failPage(w, r, err)
		return
	}
	post, err := p.posts.Owned(ctx, user, id)
	if err != nil {
		p.fail(w, r, err, back)
		return
	}

	p.render(w, r, http.StatusOK, pageEdit, map[string]any{
		"Title":  "Edit post",
		"User":   user,
		"PostID": id,
		"Return": back,
		"Form": service.PostForm{
			Title:     post.Title,
			Content:   post.Content,
			Published: post.Published,
		},
	})
}

// HandleUpdatePost saves the edit form.
//
// HTTP: POST /posts/{id}/edit
// FORM: title, content, published, return
func (p *Pages) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnPath(r)
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, back)
		return
	}

	form := postForm(r)
	if err := p.posts.Update(ctx, user, id, form); err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			p.render(w, r, formStatus(err), pageEdit, map[string]any{
				"Title":     "Edit post",
				"User":      user,
				"PostID":    id,
				"Return":    back,
				"Form":      form,
				"FormError": formError(err),
			})
			return
		}
		p.fail(w, r, err, back)
		return
	}

	p.session.SetFlash(ctx, session.FlashSuccess, "Post updated")
	seeOther(w, r, postAnchor(back, id))
}

// HandlePublishPost publishes an owned draft.
//
// HTTP: POST /posts/{id}/publish
func (p *Pages) HandlePublishPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnPath(r)
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, back)
		return
	}
	if err := p.posts.Publish(ctx, user, id); err != nil {
		p.fail(w, r, err, back)
		return
	}

	p.session.SetFlash(ctx, session.FlashSuccess, "Post published successfully")
	seeOther(w, r, postAnchor(back, id))
}

// HandleDeletePost is the first step of deleting a post: it records a
// pending confirmation and sends the user back to the post, which now
// shows "Yes, delete" and "Cancel".
//
// HTTP: POST /posts/{id}/delete
func (p *Pages) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnPath(r)
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, back)
		return
	}
	if _, err := p.posts.Owned(ctx, user, id); err != nil {
		p.fail(w, r, err, back)
		return
	}

	p.session.BeginConfirm(ctx, session.ActionDeletePost, id)
	seeOther(w, r, postAnchor(back, id))
}

// HandleConfirmDeletePost deletes the post when the form echoes the nonce
// of the pending confirmation.
//
// HTTP: POST /posts/{id}/delete/confirm
// FORM: nonce, return
func (p *Pages) HandleConfirmDeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnPath(r)
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if !p.session.ConsumeConfirm(ctx, session.ActionDeletePost, id, r.PostFormValue("nonce")) {
		p.session.SetFlash(ctx, session.FlashError, "Delete was not confirmed. Please try again.")
		seeOther(w, r, back)
		return
	}

	user, err := p.accounts.CurrentUser(ctx)
	if err != nil {
		p.fail(w, r, err, back)
		return
	}
	if err := p.posts.Delete(ctx, user, id); err != nil {
		p.fail(w, r, err, back)
		return
	}

	p.session.SetFlash(ctx, session.FlashSuccess, "Post deleted")
	seeOther(w, r, back)
}

// HandleCancelConfirm drops a pending confirmation.
//
// HTTP: POST /confirm/cancel
func (p *Pages) HandleCancelConfirm(w http.ResponseWriter, r *http.Request) {
	p.session.CancelConfirm(r.Context())
	seeOther(w, r, returnPath(r))
}

// HandleVote toggles the user's vote on a post.
//
// HTTP: POST /posts/{id}/vote
func (p *Pages) HandleVote(w http.ResponseWriter, r *http.Request) {
	back := returnPath(r)
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if _, err := p.posts.Vote(r.Context(), id); err != nil {
		p.fail(w, r, err, back)
		return
	}
	seeOther(w, r, postAnchor(back, id))
}

// HandleToggleExpand flips "Read more" / "Show less" on a post.
//
// HTTP: POST /posts/{id}/expand
func (p *Pages) HandleToggleExpand(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	p.session.ToggleExpanded(r.Context(), id)
	seeOther(w, r, postAnchor(returnPath(r), id))
}
