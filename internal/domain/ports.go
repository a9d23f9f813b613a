package domain

import "context"

// Tokenizer reduces text to normalized lemmas (lowercased, stop words and
// non-alphabetic tokens removed). Must be deterministic within a run.
type Tokenizer interface {
	NormalizeTokens(text string) []string
}

// Prediction is a classifier's raw output: the predicted label and the
// confidence of that label.
type Prediction struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
}

// Classifier returns one prediction per text, in input order.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]Prediction, error)
}

type ReviewRepository interface {
	// Write paths
	UpsertReviews(ctx context.Context, rs []Review) error
	SaveRun(ctx context.Context, run Run) error

	// Read paths
	ListReviews(ctx context.Context, q ReviewQuery) (ReviewsPage, error)
	Aggregates(ctx context.Context, bank string) ([]Aggregate, error)
	ThemeCounts(ctx context.Context, bank string) ([]ThemeCount, error)
}

// ReviewSource fetches raw reviews for one app from a remote store listing.
type ReviewSource interface {
	FetchReviews(ctx context.Context, appID string, count int) ([]RawRecord, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Run is the persisted summary of one pipeline execution.
type Run struct {
	ID           string
	Loaded       int
	Duplicates   int
	Missing      int
	BadDates     int
	Output       int
	SchemaErrors int
}

// Read models & queries
type ReviewQuery struct {
	Bank  string
	Theme string
	Limit int
}

type ReviewsPage struct {
	Items []Review `json:"items"`
}
