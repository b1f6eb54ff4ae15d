// Package video finds a single educational video for a tutor answer.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	watchURLPrefix    = "https://www.youtube.com/watch?v="
	educationCategory = "27"
	apiKeyHeader      = "X-Goog-Api-Key"
)

// Searcher looks up one video for a query. ok is false when nothing was
// found or the lookup is unavailable.
type Searcher interface {
	Search(ctx context.Context, query string, lang language.Tag) (watchURL string, ok bool)
}

// Query builds the search text for a question asked under the given selection.
func Query(grade int, subject, topic, question string) string {
	return fmt.Sprintf("educational video for grade %d %s %s: %s", grade, subject, topic, question)
}

// Disabled is the Searcher used when no API key is configured.
type Disabled struct{}

func (Disabled) Search(context.Context, string, language.Tag) (string, bool) {
	return "", false
}

// YouTubeClient searches the YouTube Data API v3.
type YouTubeClient struct {
	service *youtube.Service
	initErr error
}

type clientOptions struct {
	endpoint string
	client   *http.Client
}

// Option configures a YouTubeClient.
type Option func(*clientOptions)

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		o.endpoint = strings.TrimRight(baseURL, "/") + "/"
	}
}

// WithHTTPClient sets a custom HTTP client. Its transport is wrapped to
// carry the API key.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.client = client
	}
}

// apiKeyTransport sends the key as a header so it never appears in a URL,
// and so never in a *url.Error.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(apiKeyHeader, t.key)
	return t.base.RoundTrip(r)
}

// NewYouTubeClient creates a search client. A client that fails to
// initialise reports every search as not found.
func NewYouTubeClient(apiKey string, opts ...Option) *YouTubeClient {
	o := clientOptions{client: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}

	base := o.client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient := *o.client
	httpClient.Transport = apiKeyTransport{key: apiKey, base: base}

	serviceOpts := []option.ClientOption{option.WithHTTPClient(&httpClient)}
	if o.endpoint != "" {
		serviceOpts = append(serviceOpts, option.WithEndpoint(o.endpoint))
	}
	service, err := youtube.NewService(context.Background(), serviceOpts...)
	if err != nil {
		return &YouTubeClient{initErr: fmt.Errorf("create youtube service: %w", err)}
	}
	return &YouTubeClient{service: service}
}

// New returns a YouTubeClient, or Disabled when apiKey is empty.
func New(apiKey string, opts ...Option) Searcher {
	if apiKey == "" {
		return Disabled{}
	}
	return NewYouTubeClient(apiKey, opts...)
}

// Search returns the watch URL of the best matching education video.
// Errors are logged and reported as not found.
func (c *YouTubeClient) Search(ctx context.Context, query string, lang language.Tag) (string, bool) {
	id, err := c.search(ctx, query, lang)
	if err != nil {
		slog.Warn("video search failed", "error", err)
		return "", false
	}
	if id == "" {
		return "", false
	}
	return watchURLPrefix + id, true
}

func (c *YouTubeClient) search(ctx context.Context, query string, lang language.Tag) (string, error) {
	if c.initErr != nil {
		return "", c.initErr
	}
	base, _ := lang.Base()
	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		VideoCategoryId(educationCategory).
		RelevanceLanguage(base.String()).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("youtube search: %w", err)
	}
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			return item.Id.VideoId, nil
		}
	}
	return "", nil
}
