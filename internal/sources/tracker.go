package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const trackerBaseURL = "https://api.github.com"

// TrackerSource lists recent issues from hosted repositories. Requires an API
// token; without one the source reports disabled and collection skips it.
type TrackerSource struct {
	client  *resty.Client
	token   string
	baseURL string
}

type trackerIssue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	HTMLURL   string    `json:"html_url"`
	CreatedAt time.Time `json:"created_at"`
	Comments  int       `json:"comments"`
	Reactions struct {
		TotalCount int `json:"total_count"`
	} `json:"reactions"`
}

// NewTrackerSource creates an issue-tracker source authenticated with token.
func NewTrackerSource(token string, timeout time.Duration) *TrackerSource {
	return &TrackerSource{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "CompWatch-Monitor/1.0").
			SetHeader("Accept", "application/vnd.github+json"),
		token:   token,
		baseURL: trackerBaseURL,
	}
}

func (t *TrackerSource) Name() string {
	return "tracker"
}

func (t *TrackerSource) Enabled() bool {
	return t.token != ""
}

// SetBaseURL overrides the API endpoint, used in tests.
func (t *TrackerSource) SetBaseURL(url string) {
	t.baseURL = url
}

func (t *TrackerSource) RecentItems(ctx context.Context, identifiers []string, since time.Time) ([]RawItem, error) {
	var items []RawItem

	for _, repo := range identifiers {
		issues, err := t.fetchIssues(ctx, repo, since)
		if err != nil {
			log.Warn().Err(err).Str("repo", repo).Msg("Failed to fetch tracker issues")
			continue
		}

		for _, issue := range issues {
			if issue.CreatedAt.Before(since) {
				continue
			}
			items = append(items, RawItem{
				// Natural identifier: the issue reference, stable per repo.
				ID:           fmt.Sprintf("%s#%d", repo, issue.Number),
				Title:        issue.Title,
				Text:         issue.Body,
				URL:          issue.HTMLURL,
				PostedAt:     issue.CreatedAt.UTC(),
				Score:        issue.Reactions.TotalCount,
				CommentCount: issue.Comments,
			})
		}
	}

	return items, nil
}

func (t *TrackerSource) fetchIssues(ctx context.Context, repo string, since time.Time) ([]trackerIssue, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+t.token).
		Get(fmt.Sprintf("%s/repos/%s/issues?state=all&per_page=100&since=%s",
			t.baseURL, repo, since.UTC().Format(time.RFC3339)))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("tracker API returned status %d for %s", resp.StatusCode(), repo)
	}

	var issues []trackerIssue
	if err := json.Unmarshal(resp.Body(), &issues); err != nil {
		return nil, fmt.Errorf("failed to decode issues for %s: %w", repo, err)
	}
	return issues, nil
}
