package devapi

import (
	"net/http"

	"github.com/sakif/social-feed/internal/apperror"
	"github.com/sakif/social-feed/internal/model"
)

// MessageResponse is the body of a successful vote.
type MessageResponse struct {
	Message string `json:"message"`
}

// HandleVote adds (dir 1) or removes (dir 0) the caller's vote.
//
// HTTP: POST /vote
// REQUEST BODY: {"post_id": 7, "dir": 1}
//
//	dir 1, no vote yet    → 201 "successfully added vote"
//	dir 1, already voted  → 409
//	dir 0, voted          → 201 "successfully deleted vote"
//	dir 0, no vote        → 404 "Vote does not exist"
func (a *API) HandleVote(w http.ResponseWriter, r *http.Request) {
	var v model.Vote
	if err := decodeJSON(w, r, &v); err != nil {
		a.writeError(w, r, err)
		return
	}
	if v.Direction != model.VoteUp && v.Direction != model.VoteRetract {
		a.writeError(w, r, apperror.ValidationFailed("dir", "ensure this value is 0 or 1"))
		return
	}
	if v.PostID <= 0 {
		a.writeError(w, r, apperror.ValidationFailed("post_id", "field required"))
		return
	}

	userID := currentUser(r)
	if _, err := a.store.GetPost(r.Context(), v.PostID, userID); err != nil {
		a.writeError(w, r, err)
		return
	}

	if v.Direction == model.VoteUp {
		if err := a.store.AddVote(r.Context(), v.PostID, userID); err != nil {
			a.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, MessageResponse{Message: "successfully added vote"})
		return
	}

	if err := a.store.RemoveVote(r.Context(), v.PostID, userID); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: "successfully deleted vote"})
}
