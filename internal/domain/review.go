package domain

// SentimentLabel is the polarity reported for a review.
type SentimentLabel string

const (
	Positive SentimentLabel = "POSITIVE"
	Negative SentimentLabel = "NEGATIVE"
)

// OtherTheme is assigned when no configured theme keyword matches.
const OtherTheme = "Other"

// Sentiment is attached by the enricher. Score is the probability that the
// review is positive, so it only reads correctly together with Label.
type Sentiment struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

type Review struct {
	Text       string     `json:"text"`
	Rating     *int       `json:"rating,omitempty"`
	Date       string     `json:"date"` // YYYY-MM-DD once past the date normalizer
	BankName   string     `json:"bank_name"`
	SourceName string     `json:"source_name"`
	Sentiment  *Sentiment `json:"sentiment,omitempty"`
	Themes     []string   `json:"themes,omitempty"`

	// Tokens caches the normalized token sequence shared by the keyword
	// extractor and the theme assigner.
	Tokens []string `json:"-"`
}

// RawRecord is one row as delivered by an ingestion source, keyed by its
// original column names.
type RawRecord map[string]string

// RawBatch is one ingestion source: a file, an API page, a test fixture.
type RawBatch struct {
	Source  string   // file path or other label, used in errors and logs
	Bank    string   // bank the reviews are about, attached at ingestion
	Columns []string // header row; derived from Records when empty
	Records []RawRecord
}

// ThemeVocabulary maps a theme name to lowercase keywords or phrases.
type ThemeVocabulary map[string][]string

// Keyword is a ranked candidate term from the keyword extractor.
type Keyword struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// GroupKey identifies one aggregation bucket.
type GroupKey struct {
	Bank   string `json:"bank_name"`
	Rating int    `json:"rating"`
}

// Aggregate is the mean sentiment score of one (bank, rating) group.
type Aggregate struct {
	GroupKey
	MeanScore float64 `json:"mean_sentiment_score"`
	Count     int     `json:"count"`
}

// ThemeCount is the number of stored reviews for one bank tagged with a theme.
type ThemeCount struct {
	Bank  string `json:"bank_name"`
	Theme string `json:"theme"`
	Count int    `json:"count"`
}
