// Package feed holds the pagination state of a posts listing.
//
// STATE MACHINE:
//
//	Empty ──initial fetch──▶ Loaded ──load more──▶ Loaded
//	  ▲                        │
//	  └────────── reset ───────┘  (create, update, delete, vote, publish, filter change)
//
// The invariant is Skip == len(Items): Skip advances by the number of items a
// fetch actually returned, never by the requested page size, so a short last
// page cannot push the offset past the end of the data.
package feed

import (
	"github.com/sakif/social-feed/internal/model"
)

// Phase is the coarse state of a listing.
type Phase int

const (
	// Empty means nothing has been fetched since the last reset.
	Empty Phase = iota
	// Loaded means at least one fetch completed (possibly returning zero items).
	Loaded
)

func (p Phase) String() string {
	if p == Loaded {
		return "loaded"
	}
	return "empty"
}

// State is one screen's accumulated listing. It is stored in the user's
// session between requests, so all fields are exported.
type State struct {
	Phase   Phase
	Items   []model.FeedItem
	Skip    int
	Filters Filters
}

// NeedsInitialFetch reports whether the next render must fetch page one.
func (s *State) NeedsInitialFetch() bool {
	return s.Phase == Empty
}

// Append records a fetched page. Items keep server order and are only ever
// appended between resets.
func (s *State) Append(items []model.FeedItem) {
	s.Items = append(s.Items, items...)
	s.Skip += len(items)
	s.Phase = Loaded
}

// Reset drops everything loaded so the next render starts again at offset zero.
// Filters survive a reset.
func (s *State) Reset() {
	s.Phase = Empty
	s.Items = nil
	s.Skip = 0
}

// ApplyFilters replaces the filters and resets when they changed. It reports
// whether a reset happened.
func (s *State) ApplyFilters(f Filters) bool {
	f = f.Normalize()
	if f == s.Filters.Normalize() {
		return false
	}
	s.Filters = f
	s.Reset()
	return true
}

// CanLoadMore reports whether a "load more" control is offered. The rule is
// length based: once at least one full page worth of items is loaded, more
// may exist. Every screen uses its own page size as the threshold.
func (s *State) CanLoadMore(pageSize int) bool {
	return pageSize > 0 && len(s.Items) >= pageSize
}

// Visible returns the items to render. DraftsOnly is applied here, to the
// loaded window only; it is never sent to the server.
func (s *State) Visible() []model.FeedItem {
	if !s.Filters.DraftsOnly {
		return s.Items
	}
	drafts := make([]model.FeedItem, 0, len(s.Items))
	for _, item := range s.Items {
		if item.Post.IsDraft() {
			drafts = append(drafts, item)
		}
	}
	return drafts
}

// Find returns the loaded item with the given post id.
func (s *State) Find(postID int) (model.FeedItem, bool) {
	for _, item := range s.Items {
		if item.Post.ID == postID {
			return item, true
		}
	}
	return model.FeedItem{}, false
}

// Counts returns how many loaded items are drafts and how many are published.
func (s *State) Counts() (drafts, published int) {
	for _, item := range s.Items {
		if item.Post.IsDraft() {
			drafts++
		} else {
			published++
		}
	}
	return drafts, published
}
