// Package sentiment holds the classifier adapters behind domain.Classifier:
// a text-classification model server, two LLM providers and a cache.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"review_insights/internal/adapters/httpx"
	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

// ModelClient calls a text-classification inference endpoint that accepts
// {"inputs": [...]} and answers with one {label, score} (or a list of them)
// per input, in input order.
type ModelClient struct {
	url   string
	token string
	hc    *http.Client
	rl    *rate.Limiter
}

func NewModelClient(url, token string, rps int, timeout time.Duration) (*ModelClient, error) {
	if url == "" {
		return nil, fmt.Errorf("model URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ModelClient{
		url:   url,
		token: token,
		hc:    &http.Client{Timeout: timeout},
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type modelRequest struct {
	Inputs  []string       `json:"inputs"`
	Options map[string]any `json:"options,omitempty"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// normalizeLabel maps common model label vocabularies onto POSITIVE/NEGATIVE.
// Unknown labels pass through upper-cased and are rejected downstream.
func normalizeLabel(l string) domain.SentimentLabel {
	switch strings.ToUpper(strings.TrimSpace(l)) {
	case "POSITIVE", "POS", "LABEL_1":
		return domain.Positive
	case "NEGATIVE", "NEG", "LABEL_0":
		return domain.Negative
	default:
		return domain.SentimentLabel(strings.ToUpper(strings.TrimSpace(l)))
	}
}

// decodePredictions accepts [{label,score},...] or [[{label,score},...],...];
// for nested lists the highest-scoring label is the prediction.
func decodePredictions(body []byte) ([]domain.Prediction, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	out := make([]domain.Prediction, 0, len(items))
	for i, raw := range items {
		var best labelScore
		var one labelScore
		var many []labelScore
		switch {
		case json.Unmarshal(raw, &one) == nil && one.Label != "":
			best = one
		case json.Unmarshal(raw, &many) == nil && len(many) > 0:
			best = many[0]
			for _, c := range many[1:] {
				if c.Score > best.Score {
					best = c
				}
			}
		default:
			return nil, fmt.Errorf("decode model response: item %d has no label", i)
		}
		out = append(out, domain.Prediction{Label: normalizeLabel(best.Label), Confidence: best.Score})
	}
	return out, nil
}

func (c *ModelClient) Classify(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(modelRequest{Inputs: texts, Options: map[string]any{"wait_for_model": true}})
	if err != nil {
		return nil, err
	}
	raw, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	preds, err := decodePredictions(raw)
	if err != nil {
		return nil, err
	}
	if len(preds) != len(texts) {
		return nil, fmt.Errorf("model returned %d predictions for %d texts", len(preds), len(texts))
	}
	return preds, nil
}

var errRetryable = errors.New("model: retryable status")

// post sends body with client-side rate limiting and retries on 429/5xx,
// honoring Retry-After when provided.
func (c *ModelClient) post(ctx context.Context, body []byte) ([]byte, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < httpx.MaxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("model", "classify", 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < httpx.MaxAttempts-1 && httpx.SleepCtx(ctx, httpx.Backoff(i)) {
				continue
			}
			return nil, lastErr
		}
		observability.ObserveExternal("model", "classify", resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusOK:
			b, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			return b, err

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return nil, domain.ErrUnauthorized

		case httpx.Retryable(resp.StatusCode):
			wait := httpx.RetryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = httpx.Backoff(i)
			}
			lastErr = fmt.Errorf("%w %d", errRetryable, resp.StatusCode)
			if i < httpx.MaxAttempts-1 && httpx.SleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("model: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, lastErr
}
