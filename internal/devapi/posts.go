package devapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/model"
	"github.com/sakif/social-feed/internal/repository"
)

// HandleListPosts returns one page of the feed: everybody's published posts
// plus the caller's drafts.
//
// HTTP: GET /posts?limit=10&skip=0&sort=newest&search=go
func (a *API) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	a.listPosts(w, r, 0)
}

// HandleListMyPosts is HandleListPosts restricted to the caller's posts.
//
// HTTP: GET /posts/me?limit=10&skip=0&sort=oldest
func (a *API) HandleListMyPosts(w http.ResponseWriter, r *http.Request) {
	a.listPosts(w, r, currentUser(r))
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request, ownerID int) {
	opts, err := listOptions(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	opts.ViewerID = currentUser(r)
	opts.OwnerID = ownerID

	items, err := a.store.ListPosts(r.Context(), opts)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func listOptions(r *http.Request) (repository.ListOptions, error) {
	limit, err := queryInt(r, "limit", repository.DefaultLimit)
	if err != nil {
		return repository.ListOptions{}, err
	}
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		return repository.ListOptions{}, err
	}
	q := r.URL.Query()
	return repository.ListOptions{
		Limit:  limit,
		Offset: skip,
		Sort:   feed.Sort(q.Get("sort")),
		Search: q.Get("search"),
	}.Normalize(), nil
}

// HandleGetPost returns one post with its vote aggregate.
//
// HTTP: GET /posts/{id}
func (a *API) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	item, err := a.store.GetPost(r.Context(), id, currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// createPostRequest mirrors model.PostInput, but an absent "published" means
// true.
type createPostRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Published *bool  `json:"published"`
}

// HandleCreatePost stores a post owned by the caller.
//
// HTTP: POST /posts
// REQUEST BODY: {"title": "...", "content": "...", "published": false}
func (a *API) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	in := model.PostInput{
		Title:     strings.TrimSpace(req.Title),
		Content:   strings.TrimSpace(req.Content),
		Published: req.Published == nil || *req.Published,
	}
	if in.Title == "" {
		a.writeError(w, r, apperror.ValidationFailed("title", "field required"))
		return
	}
	if in.Content == "" {
		a.writeError(w, r, apperror.ValidationFailed("content", "field required"))
		return
	}

	post, err := a.store.CreatePost(r.Context(), currentUser(r), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.Info("post created",
		slog.Int("post_id", post.ID),
		slog.Int("owner_id", post.OwnerID),
		slog.Bool("published", post.Published),
	)
	writeJSON(w, http.StatusCreated, post)
}

// HandleUpdatePost applies a partial update. Only the owner may edit.
//
// HTTP: PATCH /posts/{id}
// REQUEST BODY: any of title, content, published
func (a *API) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := a.ownPost(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var patch model.PostPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		a.writeError(w, r, err)
		return
	}
	fields := []struct {
		name  string
		value *string
	}{{"title", patch.Title}, {"content", patch.Content}}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			a.writeError(w, r, apperror.ValidationFailed(f.name, "field may not be empty"))
			return
		}
	}

	post, err := a.store.UpdatePost(r.Context(), id, patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDeletePost removes a post and its votes. Only the owner may delete.
//
// HTTP: DELETE /posts/{id}
func (a *API) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := a.ownPost(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.store.DeletePost(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.Info("post deleted", slog.Int("post_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// ownPost returns the {id} of the request when the caller owns that post.
// Someone else's draft is reported as missing, not forbidden.
func (a *API) ownPost(r *http.Request) (int, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, err
	}
	item, err := a.store.GetPost(r.Context(), id, currentUser(r))
	if err != nil {
		return 0, err
	}
	if item.Post.OwnerID != currentUser(r) {
		return 0, apperror.Forbidden(notAuthorized)
	}
	return id, nil
}
