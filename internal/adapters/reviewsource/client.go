// Package reviewsource fetches app-store reviews from a scraper service that
// fronts the Google Play review listing.
package reviewsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"review_insights/internal/adapters/httpx"
	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

type Client struct {
	base    string
	hc      *http.Client
	key     string
	rl      *rate.Limiter
	lang    string
	country string
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("review source URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: 60 * time.Second},
		key:     key,
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		lang:    "en",
		country: "us",
	}, nil
}

// FetchReviews returns up to count newest reviews for appID, one RawRecord per
// review with every scalar field rendered as a string. Tries the current
// endpoint first and falls back to the legacy query form on 404.
func (c *Client) FetchReviews(ctx context.Context, appID string, count int) ([]domain.RawRecord, error) {
	q := url.Values{}
	q.Set("lang", c.lang)
	q.Set("country", c.country)
	q.Set("sort", "newest")
	q.Set("count", strconv.Itoa(count))

	legacy := url.Values{}
	for k, v := range q {
		legacy[k] = v
	}
	legacy.Set("app", appID)

	candidates := []string{
		fmt.Sprintf("%s/apps/%s/reviews?%s", c.base, url.PathEscape(appID), q.Encode()),
		fmt.Sprintf("%s/reviews?%s", c.base, legacy.Encode()),
	}
	var body json.RawMessage
	if err := c.getFirst(ctx, candidates, &body); err != nil {
		return nil, err
	}
	items, err := decodeItems(body)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RawRecord, 0, len(items))
	for _, it := range items {
		out = append(out, flatten(it))
	}
	return out, nil
}

// decodeItems accepts a bare array or an envelope {"reviews": [...]}.
func decodeItems(body []byte) ([]map[string]any, error) {
	var arr []map[string]any
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr, nil
	}
	var env struct {
		Reviews []map[string]any `json:"reviews"`
		Data    []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	if env.Reviews != nil {
		return env.Reviews, nil
	}
	return env.Data, nil
}

func flatten(m map[string]any) domain.RawRecord {
	rec := make(domain.RawRecord, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			rec[k] = ""
		case string:
			rec[k] = t
		case float64:
			rec[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			rec[k] = strconv.FormatBool(t)
		default:
			b, _ := json.Marshal(t)
			rec[k] = string(b)
		}
	}
	return rec
}

func (c *Client) getFirst(ctx context.Context, urls []string, out any) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, u, out); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				last = err
				continue
			}
			return err
		}
		return nil
	}
	if last != nil {
		return last
	}
	return errors.New("no candidate URL succeeded")
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < httpx.MaxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "review-insights/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("reviewsource", "reviews", 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < httpx.MaxAttempts-1 && httpx.SleepCtx(ctx, httpx.Backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("reviewsource", "reviews", resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return domain.ErrUnauthorized

		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return domain.ErrForbidden

		case httpx.Retryable(resp.StatusCode):
			wait := httpx.RetryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = httpx.Backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < httpx.MaxAttempts-1 && httpx.SleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}
