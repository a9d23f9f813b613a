package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"review_insights/internal/domain"
)

type IngestOptions struct {
	Count      int // newest reviews requested per app
	MinReviews int // fewer than this is logged as a warning
	SourceName string
}

// IngestionService acquires the newest store reviews for one bank app and
// maps them onto the raw review layout.
type IngestionService struct {
	src  domain.ReviewSource
	opts IngestOptions
}

func NewIngestionService(src domain.ReviewSource, opts IngestOptions) *IngestionService {
	if opts.SourceName == "" {
		opts.SourceName = "Google Play"
	}
	return &IngestionService{src: src, opts: opts}
}

// Acquire fetches, maps and dedups on (text, date, rating). Dates are
// canonicalized where they parse; the rest are kept verbatim for the
// pipeline's date stage to report.
func (s *IngestionService) Acquire(ctx context.Context, appID, bank string) ([]domain.Review, error) {
	start := time.Now()
	recs, err := s.src.FetchReviews(ctx, appID, s.opts.Count)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", appID, err)
	}

	batch := domain.RawBatch{Source: appID, Bank: bank, Records: recs}
	rs, err := mapBatch(batch, s.opts.SourceName)
	if err != nil {
		return nil, err
	}
	for i := range rs {
		if d, err := parseDate(rs[i].Date); err == nil {
			rs[i].Date = d
		}
	}
	out := Deduplicate(rs, CompositeKey)
	stage("acquire", len(rs), start, len(out))

	l := log.With().Str("app", appID).Str("bank", bank).Logger()
	if len(out) < s.opts.MinReviews {
		l.Warn().Int("reviews", len(out)).Int("min", s.opts.MinReviews).Msg("fewer reviews than expected")
	} else {
		l.Info().Int("reviews", len(out)).Msg("reviews acquired")
	}
	return out, nil
}
