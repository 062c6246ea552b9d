package feeds

import (
	"context"
	"time"
)

// Document is one raw retrieved item: a news article or a social post.
type Document struct {
	Source      string
	Title       string
	Content     string
	PublishedAt time.Time
}

// NewsProvider retrieves news coverage for a ticker around a date.
type NewsProvider interface {
	FetchNews(ctx context.Context, ticker string, date time.Time) ([]Document, error)
}

// SocialProvider retrieves social sentiment posts for a ticker.
type SocialProvider interface {
	FetchSocial(ctx context.Context, ticker string, date time.Time) ([]Document, error)
}
