// Package model defines the data structures exchanged with the posts API.
//
// The JSON tags follow the backend's wire format exactly, including the
// capitalised "Post" key of a feed item.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Owner is the author summary embedded in every post.
type Owner struct {
	ID        int    `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// FullName returns "First Last".
func (o Owner) FullName() string {
	switch {
	case o.FirstName == "":
		return o.LastName
	case o.LastName == "":
		return o.FirstName
	}
	return o.FirstName + " " + o.LastName
}

// Post is a single post. A post with Published=false is a draft and only
// its owner ever receives it.
type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Published bool      `json:"published"`
	OwnerID   int       `json:"owner_id"`
	Owner     Owner     `json:"owner"`
	CreatedAt Timestamp `json:"created_at"`
}

// IsDraft reports whether the post is unpublished.
func (p Post) IsDraft() bool {
	return !p.Published
}

// FeedItem is one row of a posts listing: the post plus its vote aggregate
// and whether the current user is among the voters.
type FeedItem struct {
	Post      Post `json:"Post"`
	Votes     int  `json:"votes"`
	UserVoted bool `json:"user_voted"`
}

// Vote directions accepted by POST /vote.
const (
	VoteRetract = 0
	VoteUp      = 1
)

// Vote is the request body of POST /vote.
type Vote struct {
	PostID    int `json:"post_id"`
	Direction int `json:"dir"`
}

// NextVoteDirection returns the direction that toggles the current vote:
// retract when the user already voted, upvote otherwise.
func (i FeedItem) NextVoteDirection() int {
	if i.UserVoted {
		return VoteRetract
	}
	return VoteUp
}

// Timestamp is created_at as sent by the backend. The backend emits naive UTC
// timestamps ("2024-05-01T10:00:00.123456") or RFC 3339 ones; anything else is
// kept verbatim in Raw so the page can still show it.
type Timestamp struct {
	Time time.Time
	Raw  string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses s with the layouts the backend is known to use.
// Timestamps without a zone are taken as UTC.
func ParseTimestamp(s string) Timestamp {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC(), Raw: s}
		}
	}
	return Timestamp{Raw: s}
}

// IsZero reports whether the timestamp could not be parsed.
func (ts Timestamp) IsZero() bool {
	return ts.Time.IsZero()
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("model: decoding timestamp: %w", err)
	}
	*ts = ParseTimestamp(s)
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Time.IsZero() {
		if ts.Raw == "" {
			return []byte("null"), nil
		}
		return json.Marshal(ts.Raw)
	}
	return json.Marshal(ts.Time.UTC().Format(time.RFC3339Nano))
}
