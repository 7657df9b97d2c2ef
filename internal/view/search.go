package view

import (
	"context"
	"strings"
	"time"

	"dismoment/internal/models"
	"dismoment/internal/session"
)

// Search result kinds pushed to the overlay.
const (
	SearchResults  = "results"
	SearchTrending = "trending"
	SearchError    = "error"
)

type SearchResult struct {
	Type   string        `json:"type"`
	Term   string        `json:"term,omitempty"`
	Status ListStatus    `json:"status"`
	Posts  []models.Post `json:"posts"`
	Error  string        `json:"error,omitempty"`
}

// SearchView is the search overlay of one connection. Keystrokes are
// debounced; an empty input shows trending posts instead of results.
type SearchView struct {
	ctx  context.Context
	sc   *session.Context
	feed *FeedView
	emit func(SearchResult)
	deb  *Debouncer
}

// NewSearchView starts an overlay whose lookups run under ctx and whose
// results go to emit. emit is called from the debounce goroutine.
func NewSearchView(ctx context.Context, sc *session.Context, feed *FeedView, window time.Duration, emit func(SearchResult)) *SearchView {
	v := &SearchView{ctx: ctx, sc: sc, feed: feed, emit: emit}
	v.deb = NewDebouncer(window, v.run)
	return v
}

// Input records a keystroke.
func (v *SearchView) Input(value string) {
	v.deb.Push(value)
}

// Trending pushes trending posts right away, as shown when the overlay opens.
func (v *SearchView) Trending() {
	v.run("")
}

// Close stops pending lookups.
func (v *SearchView) Close() {
	v.deb.Stop()
}

func (v *SearchView) run(value string) {
	if v.ctx.Err() != nil {
		return
	}
	term := strings.TrimSpace(value)
	if term == "" {
		v.emit(searchResult(SearchTrending, "", v.feed.Trending(v.ctx, v.sc)))
		return
	}
	v.emit(searchResult(SearchResults, term, v.feed.Search(v.ctx, v.sc, term)))
}

func searchResult(kind, term string, list PostList) SearchResult {
	if list.Status == ListError {
		kind = SearchError
	}
	return SearchResult{Type: kind, Term: term, Status: list.Status, Posts: list.Posts, Error: list.Error}
}
