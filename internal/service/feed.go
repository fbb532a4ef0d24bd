package service

import (
	"context"
	"log/slog"

	"github.com/sakif/social-feed/internal/feed"
	"github.com/sakif/social-feed/internal/model"
)

// FeedService drives the pagination state machine of the listing screens.
// One instance serves every screen; the feed.Screen argument says which.
type FeedService struct {
	backend PostBackend
	store   FeedStore
	logger  *slog.Logger
}

func NewFeedService(backend PostBackend, store FeedStore, logger *slog.Logger) *FeedService {
	return &FeedService{backend: backend, store: store, logger: logger}
}

// Page is what a listing screen renders.
type Page struct {
	Screen      feed.Screen
	Filters     feed.Filters
	Items       []model.FeedItem // after the drafts-only filter
	Loaded      int              // before the drafts-only filter
	CanLoadMore bool
	Drafts      int
	Published   int
}

// Load returns the screen's page, fetching the first batch when nothing is
// loaded. A non-nil filters replaces the stored filters and resets the
// screen when they differ.
func (s *FeedService) Load(ctx context.Context, sc feed.Screen, filters *feed.Filters) (Page, error) {
	st := s.store.FeedState(ctx, sc.Name)
	if filters != nil && st.ApplyFilters(*filters) {
		s.logger.Debug("feed filters changed", slog.String("screen", sc.Name))
	}

	if st.NeedsInitialFetch() {
		if err := s.fetch(ctx, sc, &st); err != nil {
			// Keep the new filters even though the fetch failed.
			s.store.SaveFeedState(ctx, sc.Name, st)
			return s.page(sc, st), err
		}
	}
	s.store.SaveFeedState(ctx, sc.Name, st)
	return s.page(sc, st), nil
}

// LoadMore fetches the next batch at the current offset. It is a no-op when
// the screen does not offer "load more".
func (s *FeedService) LoadMore(ctx context.Context, sc feed.Screen) error {
	st := s.store.FeedState(ctx, sc.Name)
	if !st.NeedsInitialFetch() && !st.CanLoadMore(sc.PageSize) {
		return nil
	}
	if err := s.fetch(ctx, sc, &st); err != nil {
		return err
	}
	s.store.SaveFeedState(ctx, sc.Name, st)
	return nil
}

// Reset drops every screen's loaded posts.
func (s *FeedService) Reset(ctx context.Context) {
	s.store.ResetFeeds(ctx)
}

func (s *FeedService) fetch(ctx context.Context, sc feed.Screen, st *feed.State) error {
	items, err := s.backend.ListPosts(ctx, sc.Endpoint, sc.Query(st.Filters, st.Skip))
	if err != nil {
		return err
	}
	st.Append(items)

	s.logger.Debug("feed page fetched",
		slog.String("screen", sc.Name),
		slog.Int("received", len(items)),
		slog.Int("skip", st.Skip),
	)
	return nil
}

func (s *FeedService) page(sc feed.Screen, st feed.State) Page {
	drafts, published := st.Counts()
	return Page{
		Screen:      sc,
		Filters:     st.Filters.Normalize(),
		Items:       st.Visible(),
		Loaded:      len(st.Items),
		CanLoadMore: st.CanLoadMore(sc.PageSize),
		Drafts:      drafts,
		Published:   published,
	}
}
