package feed

import (
	"net/url"
	"testing"

	"github.com/sakif/social-feed/internal/model"
)

func items(ids ...int) []model.FeedItem {
	out := make([]model.FeedItem, len(ids))
	for i, id := range ids {
		out[i] = model.FeedItem{Post: model.Post{ID: id, Published: id%2 == 0}}
	}
	return out
}

func seq(from, n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = from + i
	}
	return ids
}

func TestState_SkipTracksLoadedLength(t *testing.T) {
	var s State
	if !s.NeedsInitialFetch() {
		t.Fatal("new state should need an initial fetch")
	}

	pages := [][]model.FeedItem{items(seq(1, 50)...), items(seq(51, 50)...), items(seq(101, 7)...), nil}
	for i, page := range pages {
		s.Append(page)
		if s.Skip != len(s.Items) {
			t.Fatalf("after page %d: Skip = %d, len(Items) = %d", i, s.Skip, len(s.Items))
		}
	}
	if s.Skip != 107 {
		t.Errorf("Skip = %d, want 107", s.Skip)
	}
	if s.Phase != Loaded {
		t.Errorf("Phase = %v, want loaded", s.Phase)
	}
}

func TestState_AppendKeepsServerOrder(t *testing.T) {
	var s State
	s.Append(items(3, 1))
	s.Append(items(9, 2))

	want := []int{3, 1, 9, 2}
	for i, item := range s.Items {
		if item.Post.ID != want[i] {
			t.Fatalf("Items[%d].ID = %d, want %d", i, item.Post.ID, want[i])
		}
	}
}

func TestState_EmptyFirstPage(t *testing.T) {
	var s State
	s.Append(nil)

	if s.NeedsInitialFetch() {
		t.Error("an empty fetch still counts as loaded")
	}
	if s.CanLoadMore(AllPosts.PageSize) {
		t.Error("CanLoadMore() = true with nothing loaded")
	}
}

func TestState_Reset(t *testing.T) {
	s := State{Filters: Filters{Search: "go", Sort: SortOldest}}
	s.Append(items(1, 2, 3))
	s.Reset()

	if !s.NeedsInitialFetch() || s.Skip != 0 || len(s.Items) != 0 {
		t.Errorf("after Reset: %+v", s)
	}
	if s.Filters.Search != "go" {
		t.Error("Reset should keep filters")
	}
}

func TestState_CanLoadMore(t *testing.T) {
	tests := []struct {
		name   string
		loaded int
		want   bool
	}{
		{"none", 0, false},
		{"short page", 49, false},
		{"full page", 50, true},
		{"more than a page", 57, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s State
			s.Append(items(seq(1, tt.loaded)...))
			if got := s.CanLoadMore(50); got != tt.want {
				t.Errorf("CanLoadMore(50) with %d items = %v, want %v", tt.loaded, got, tt.want)
			}
		})
	}
}

func TestState_ApplyFilters(t *testing.T) {
	var s State
	s.Append(items(1, 2))

	if s.ApplyFilters(Filters{Sort: SortNewest}) {
		t.Error("default filters should not reset")
	}
	if len(s.Items) != 2 {
		t.Fatal("items dropped without a filter change")
	}

	if !s.ApplyFilters(Filters{Search: "  rust ", Sort: SortNewest}) {
		t.Fatal("changed search should reset")
	}
	if s.Filters.Search != "rust" {
		t.Errorf("Search = %q, want trimmed", s.Filters.Search)
	}
	if !s.NeedsInitialFetch() {
		t.Error("state should be empty after a filter change")
	}
}

func TestState_VisibleDraftsOnly(t *testing.T) {
	var s State
	s.Append(items(1, 2, 3, 4, 5))

	if got := len(s.Visible()); got != 5 {
		t.Errorf("Visible() without filter = %d items, want 5", got)
	}

	s.Filters.DraftsOnly = true
	for _, item := range s.Visible() {
		if !item.Post.IsDraft() {
			t.Errorf("published post %d shown with drafts only", item.Post.ID)
		}
	}
	if got := len(s.Visible()); got != 3 {
		t.Errorf("Visible() drafts only = %d items, want 3", got)
	}
	if len(s.Items) != 5 {
		t.Error("drafts filter must not drop loaded items")
	}
}

func TestState_Counts(t *testing.T) {
	var s State
	s.Append(items(1, 2, 3, 4, 5))
	drafts, published := s.Counts()
	if drafts != 3 || published != 2 {
		t.Errorf("Counts() = %d, %d, want 3, 2", drafts, published)
	}
}

func TestState_Find(t *testing.T) {
	var s State
	s.Append(items(10, 20))
	if item, ok := s.Find(20); !ok || item.Post.ID != 20 {
		t.Errorf("Find(20) = %v, %v", item, ok)
	}
	if _, ok := s.Find(30); ok {
		t.Error("Find(30) found a post that is not loaded")
	}
}

func TestScreen_Query(t *testing.T) {
	f := Filters{Search: "go", Sort: SortPopularity, DraftsOnly: true}

	q := AllPosts.Query(f, 100)
	if q.Get("limit") != "50" || q.Get("skip") != "100" || q.Get("sort") != "popularity" || q.Get("search") != "go" {
		t.Errorf("AllPosts.Query() = %v", q)
	}
	if q.Has("drafts") {
		t.Error("drafts filter must stay client side")
	}

	mine := MyPosts.Query(f, 0)
	if mine.Has("search") {
		t.Error("MyPosts does not search on the server")
	}
}

func TestScreen_FiltersFromQuery(t *testing.T) {
	q := url.Values{"search": {"hello"}, "sort": {"OLDEST"}, "drafts": {"true"}}

	got := AllPosts.FiltersFromQuery(q)
	want := Filters{Search: "hello", Sort: SortOldest, DraftsOnly: true}
	if got != want {
		t.Errorf("AllPosts.FiltersFromQuery() = %+v, want %+v", got, want)
	}

	mine := MyPosts.FiltersFromQuery(q)
	if mine.Search != "" {
		t.Errorf("MyPosts picked up search %q", mine.Search)
	}
}

func TestParseSort(t *testing.T) {
	tests := map[string]Sort{
		"":           SortNewest,
		"newest":     SortNewest,
		"Oldest":     SortOldest,
		"popularity": SortPopularity,
		"random":     SortNewest,
	}
	for in, want := range tests {
		if got := ParseSort(in); got != want {
			t.Errorf("ParseSort(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLookup(t *testing.T) {
	if sc, ok := Lookup("mine"); !ok || sc.Endpoint != "/posts/me" {
		t.Errorf("Lookup(mine) = %+v, %v", sc, ok)
	}
	if _, ok := Lookup("other"); ok {
		t.Error("Lookup(other) should fail")
	}
}
