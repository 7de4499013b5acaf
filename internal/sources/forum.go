package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const forumBaseURL = "https://www.reddit.com"

// ForumSource lists recent posts from public forum listings. No credentials
// are required, so it is always enabled.
type ForumSource struct {
	client  *resty.Client
	baseURL string
}

type forumListing struct {
	Data struct {
		Children []struct {
			Data forumPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type forumPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

// NewForumSource creates a forum source with the given request timeout.
func NewForumSource(timeout time.Duration) *ForumSource {
	return &ForumSource{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "CompWatch-Monitor/1.0"),
		baseURL: forumBaseURL,
	}
}

func (f *ForumSource) Name() string {
	return "forum"
}

func (f *ForumSource) Enabled() bool {
	return true
}

// SetBaseURL overrides the listing endpoint, used in tests.
func (f *ForumSource) SetBaseURL(url string) {
	f.baseURL = url
}

func (f *ForumSource) RecentItems(ctx context.Context, identifiers []string, since time.Time) ([]RawItem, error) {
	var items []RawItem

	for _, forum := range identifiers {
		listing, err := f.fetchListing(ctx, forum)
		if err != nil {
			// One unreachable forum must not drop the others.
			log.Warn().Err(err).Str("forum", forum).Msg("Failed to fetch forum listing")
			continue
		}

		for _, child := range listing.Data.Children {
			post := child.Data
			postedAt := time.Unix(int64(post.CreatedUTC), 0).UTC()
			if postedAt.Before(since) {
				continue
			}
			items = append(items, RawItem{
				ID:           post.ID,
				Title:        post.Title,
				Text:         post.Selftext,
				URL:          f.baseURL + post.Permalink,
				PostedAt:     postedAt,
				Score:        post.Score,
				CommentCount: post.NumComments,
			})
		}
	}

	return items, nil
}

func (f *ForumSource) fetchListing(ctx context.Context, forum string) (*forumListing, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("%s/r/%s/new.json?limit=100", f.baseURL, forum))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("forum API returned status %d for %s", resp.StatusCode(), forum)
	}

	var listing forumListing
	if err := json.Unmarshal(resp.Body(), &listing); err != nil {
		return nil, fmt.Errorf("failed to decode forum listing for %s: %w", forum, err)
	}
	return &listing, nil
}
