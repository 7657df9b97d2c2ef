package service

import (
	"context"
	"time"

	"dismoment/internal/session"
	"dismoment/internal/view"
)

type SearchService struct {
	feed   *view.FeedView
	window time.Duration
}

func NewSearchService(feed *view.FeedView, window time.Duration) *SearchService {
	if window <= 0 {
		window = view.DefaultDebounce
	}
	return &SearchService{feed: feed, window: window}
}

// Open starts the search overlay of one connection and pushes trending
// posts straight away. The caller must Close the returned view.
func (s *SearchService) Open(ctx context.Context, sc *session.Context, emit func(view.SearchResult)) SearchSession {
	v := view.NewSearchView(ctx, sc, s.feed, s.window, emit)
	v.Trending()
	return v
}
