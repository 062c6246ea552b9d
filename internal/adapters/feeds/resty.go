package feeds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"consilium/pkg/errors"
	"consilium/pkg/logger"
)

// HTTPFeeds fetches news and social documents from JSON HTTP endpoints.
type HTTPFeeds struct {
	client        *resty.Client
	newsBaseURL   string
	newsAPIKey    string
	socialBaseURL string
	log           *logger.Logger
}

var (
	_ NewsProvider   = (*HTTPFeeds)(nil)
	_ SocialProvider = (*HTTPFeeds)(nil)
)

// NewHTTPFeeds creates a feeds client.
func NewHTTPFeeds(newsBaseURL, newsAPIKey, socialBaseURL string, timeout time.Duration) *HTTPFeeds {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &HTTPFeeds{
		client:        client,
		newsBaseURL:   newsBaseURL,
		newsAPIKey:    newsAPIKey,
		socialBaseURL: socialBaseURL,
		log:           logger.Get().With("component", "feeds"),
	}
}

type feedItem struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"published_at"`
}

// FetchNews retrieves news articles for the ticker around the date.
func (f *HTTPFeeds) FetchNews(ctx context.Context, ticker string, date time.Time) ([]Document, error) {
	if f.newsBaseURL == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "news base URL not configured")
	}

	var items []feedItem
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ticker": ticker,
			"date":   date.Format("2006-01-02"),
		}).
		SetHeader("Authorization", "Bearer "+f.newsAPIKey).
		SetResult(&items).
		Get(f.newsBaseURL + "/news")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderTransient, "fetch news: %v", err)
	}
	if resp.IsError() {
		return nil, errors.Wrapf(errors.ErrExternal, "news endpoint returned %d", resp.StatusCode())
	}

	return toDocuments(items), nil
}

// FetchSocial retrieves social posts for the ticker around the date.
func (f *HTTPFeeds) FetchSocial(ctx context.Context, ticker string, date time.Time) ([]Document, error) {
	if f.socialBaseURL == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "social base URL not configured")
	}

	var items []feedItem
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ticker": ticker,
			"date":   date.Format("2006-01-02"),
		}).
		SetResult(&items).
		Get(f.socialBaseURL + "/posts")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrProviderTransient, "fetch social: %v", err)
	}
	if resp.IsError() {
		return nil, errors.Wrapf(errors.ErrExternal, "social endpoint returned %d", resp.StatusCode())
	}

	return toDocuments(items), nil
}

func toDocuments(items []feedItem) []Document {
	docs := make([]Document, 0, len(items))
	for _, it := range items {
		docs = append(docs, Document(it))
	}
	return docs
}

// RenderDocuments formats documents for prompt construction.
func RenderDocuments(docs []Document) string {
	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "[%s] %s (%s)\n%s\n\n",
			d.Source, d.Title, d.PublishedAt.Format("2006-01-02"), d.Content)
	}
	return b.String()
}
