package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"review_insights/internal/domain"
)

const DefaultBatchSize = 32

// positiveProbability is the single place where classifier output becomes a
// stored score. Classifiers report the confidence of the predicted label;
// the stored score is always the probability of POSITIVE.
func positiveProbability(p domain.Prediction) (domain.Sentiment, error) {
	if p.Confidence < 0 || p.Confidence > 1 {
		return domain.Sentiment{}, fmt.Errorf("confidence %v outside [0,1]", p.Confidence)
	}
	switch domain.SentimentLabel(strings.ToUpper(strings.TrimSpace(string(p.Label)))) {
	case domain.Positive:
		return domain.Sentiment{Label: domain.Positive, Score: p.Confidence}, nil
	case domain.Negative:
		return domain.Sentiment{Label: domain.Negative, Score: 1 - p.Confidence}, nil
	default:
		return domain.Sentiment{}, fmt.Errorf("unknown label %q", p.Label)
	}
}

// SentimentEnricher attaches sentiment through the classifier port. Batches
// may run concurrently; results are written back by index so output order
// never depends on scheduling.
type SentimentEnricher struct {
	clf       domain.Classifier
	batchSize int
	workers   int
}

func NewSentimentEnricher(clf domain.Classifier, batchSize, workers int) *SentimentEnricher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers <= 0 {
		workers = 1
	}
	return &SentimentEnricher{clf: clf, batchSize: batchSize, workers: workers}
}

func (e *SentimentEnricher) classifyBatch(ctx context.Context, rs []domain.Review, start, end int, out []domain.Sentiment) error {
	fail := func(err error) error {
		idx := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			idx = append(idx, i)
		}
		return &domain.ClassificationError{Start: start, End: end, Indexes: idx, Err: err}
	}

	texts := make([]string, 0, end-start)
	for _, r := range rs[start:end] {
		texts = append(texts, r.Text)
	}
	preds, err := e.clf.Classify(ctx, texts)
	if err != nil {
		return fail(err)
	}
	if len(preds) != len(texts) {
		return fail(fmt.Errorf("classifier returned %d predictions for %d texts", len(preds), len(texts)))
	}
	for i, p := range preds {
		s, err := positiveProbability(p)
		if err != nil {
			return fail(fmt.Errorf("review %d: %w", start+i, err))
		}
		out[start+i] = s
	}
	return nil
}

// Enrich sets Sentiment on every review, or on none: a failed batch returns
// a *domain.ClassificationError and leaves rs untouched.
func (e *SentimentEnricher) Enrich(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	out := make([]domain.Sentiment, len(rs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for start := 0; start < len(rs); start += e.batchSize {
		start, end := start, min(start+e.batchSize, len(rs))
		g.Go(func() error { return e.classifyBatch(gctx, rs, start, end, out) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range rs {
		s := out[i]
		rs[i].Sentiment = &s
	}
	return nil
}
