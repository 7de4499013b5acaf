package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	userAgent     = "CompWatch-Monitor/1.0"
	retryBaseWait = 2 * time.Second
)

// ErrorKind distinguishes retryable failures from ones that are not worth retrying.
type ErrorKind int

const (
	// KindTransient covers network errors, timeouts, and 5xx/429 responses.
	// These are retried up to the configured attempt count before giving up.
	KindTransient ErrorKind = iota
	// KindPermanent covers 4xx responses; retrying won't change the answer.
	KindPermanent
)

func (k ErrorKind) String() string {
	if k == KindPermanent {
		return "permanent"
	}
	return "transient"
}

// Error is a typed fetch failure.
type Error struct {
	URL        string
	StatusCode int // 0 when no response was received
	Kind       ErrorKind
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d (%s)", e.URL, e.StatusCode, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %v (%s)", e.URL, e.Err, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher retrieves raw page content with a bounded retry policy.
type Fetcher struct {
	client *resty.Client
}

// New creates a Fetcher. attempts is the total number of tries per URL;
// waits between retries grow linearly (2s, 4s, ...).
func New(timeout time.Duration, attempts int) *Fetcher {
	if attempts < 1 {
		attempts = 1
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(attempts - 1).
		SetRetryAfter(func(c *resty.Client, r *resty.Response) (time.Duration, error) {
			return time.Duration(r.Request.Attempt) * retryBaseWait, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := r.StatusCode()
			return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
		})

	return &Fetcher{client: client}
}

// Fetch retrieves the content at url. Failures are returned as *Error with
// the kind set so callers can distinguish abandoned-after-retries from
// not-worth-retrying.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", &Error{URL: url, Kind: KindTransient, Err: err}
	}

	code := resp.StatusCode()
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return resp.String(), nil
	case code >= http.StatusBadRequest && code < http.StatusInternalServerError && code != http.StatusTooManyRequests:
		return "", &Error{URL: url, StatusCode: code, Kind: KindPermanent}
	default:
		return "", &Error{URL: url, StatusCode: code, Kind: KindTransient}
	}
}
