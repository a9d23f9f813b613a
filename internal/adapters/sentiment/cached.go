package sentiment

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog/log"

	"review_insights/internal/domain"
)

const cacheTTLSec = 30 * 24 * 3600

// Cached remembers predictions per (model, text) so reruns over mostly
// unchanged exports only classify new reviews.
type Cached struct {
	next  domain.Classifier
	cache domain.Cache
	model string
}

func NewCached(next domain.Classifier, cache domain.Cache, model string) *Cached {
	return &Cached{next: next, cache: cache, model: model}
}

func (c *Cached) key(text string) string {
	h := sha1.Sum([]byte(c.model + "\x1f" + text))
	return "sentiment:" + hex.EncodeToString(h[:])
}

func (c *Cached) Classify(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	out := make([]domain.Prediction, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		var p domain.Prediction
		if ok, err := c.cache.Get(ctx, c.key(t), &p); err == nil && ok {
			out[i] = p
			continue
		} else if err != nil {
			log.Warn().Err(err).Msg("sentiment cache get failed")
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	preds, err := c.next.Classify(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(preds) != len(missTexts) {
		return nil, fmt.Errorf("classifier returned %d predictions for %d texts", len(preds), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = preds[j]
		if err := c.cache.Set(ctx, c.key(texts[i]), preds[j], cacheTTLSec); err != nil {
			log.Warn().Err(err).Msg("sentiment cache set failed")
		}
	}
	return out, nil
}
