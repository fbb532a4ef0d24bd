package feed

import (
	"net/url"
	"strconv"
	"strings"
)

// Sort is the server-side ordering of a listing.
type Sort string

const (
	SortNewest     Sort = "newest"
	SortOldest     Sort = "oldest"
	SortPopularity Sort = "popularity"
)

// Sorts lists the supported orderings in display order.
var Sorts = []Sort{SortNewest, SortOldest, SortPopularity}

// ParseSort maps user input to a Sort, defaulting to newest.
func ParseSort(s string) Sort {
	for _, known := range Sorts {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return SortNewest
}

// Label is the human-readable name shown in the sort selector.
func (s Sort) Label() string {
	switch s {
	case SortOldest:
		return "Oldest"
	case SortPopularity:
		return "Most votes"
	}
	return "Newest"
}

// Filters are the user's current listing choices.
type Filters struct {
	Search     string
	Sort       Sort
	DraftsOnly bool
}

// Normalize trims the search text and fills in the default sort.
func (f Filters) Normalize() Filters {
	f.Search = strings.TrimSpace(f.Search)
	f.Sort = ParseSort(string(f.Sort))
	return f
}

// Screen configures one listing page. The feed and "my posts" pages are the
// same controller driven by two Screen values.
type Screen struct {
	Name         string // session key and route segment
	Title        string
	Path         string // page route
	Endpoint     string // backend listing endpoint
	PageSize     int    // request limit, also the load-more threshold
	PreviewLimit int    // characters of content shown before "Read more"
	Searchable   bool
	Sortable     bool
	DraftFilter  bool
	ShowStats    bool // draft / published counters
	AllowCreate  bool
	AllowVote    bool
	EmptyMessage string
}

// FiltersFromQuery reads the filters this screen supports from a query string.
// Unsupported filters are left at their zero value.
func (sc Screen) FiltersFromQuery(q url.Values) Filters {
	var f Filters
	if sc.Searchable {
		f.Search = q.Get("search")
	}
	if sc.Sortable {
		f.Sort = Sort(q.Get("sort"))
	}
	if sc.DraftFilter {
		f.DraftsOnly, _ = strconv.ParseBool(q.Get("drafts"))
	}
	return f.Normalize()
}

// Query builds the backend query for the page at skip.
func (sc Screen) Query(f Filters, skip int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(sc.PageSize))
	q.Set("skip", strconv.Itoa(skip))
	q.Set("sort", string(ParseSort(string(f.Sort))))
	if sc.Searchable && f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// DefaultPageSize matches the backend's batch size for the feed.
const DefaultPageSize = 50

// AllPosts is the main feed: everybody's published posts plus the user's own drafts.
var AllPosts = Screen{
	Name:         "feed",
	Title:        "Feed",
	Path:         "/feed",
	Endpoint:     "/posts",
	PageSize:     DefaultPageSize,
	PreviewLimit: 220,
	Searchable:   true,
	Sortable:     true,
	DraftFilter:  true,
	AllowCreate:  true,
	AllowVote:    true,
	EmptyMessage: "No posts yet. Be the first to write one!",
}

// MyPosts lists only the current user's posts, drafts included.
var MyPosts = Screen{
	Name:         "mine",
	Title:        "My Posts",
	Path:         "/my-posts",
	Endpoint:     "/posts/me",
	PageSize:     DefaultPageSize,
	PreviewLimit: 200,
	Sortable:     true,
	DraftFilter:  true,
	ShowStats:    true,
	AllowCreate:  true,
	EmptyMessage: "You haven't created any posts yet. Start with the form above!",
}

// Screens is every listing screen, in navigation order.
var Screens = []Screen{AllPosts, MyPosts}

// Lookup returns the screen with the given name.
func Lookup(name string) (Screen, bool) {
	for _, sc := range Screens {
		if sc.Name == name {
			return sc, true
		}
	}
	return Screen{}, false
}
