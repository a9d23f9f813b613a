package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"review_insights/internal/adapters/observability"
	"review_insights/internal/domain"
)

type PipelineOptions struct {
	DefaultSource string
	TopN          int
	VocabSize     int
	BatchSize     int
	Workers       int
	Themes        domain.ThemeVocabulary
}

// Report carries the audit views of the cleaning stages.
type Report struct {
	Loaded        int
	SchemaErrors  []error
	DuplicateRows []int // every member of a duplicate group, pre-dedup indexes
	Duplicates    int   // rows removed by dedup
	Incomplete    []MissingFields
	BadDates      []*domain.ParseError
	Output        int
}

type Result struct {
	RunID      string
	Reviews    []domain.Review
	Keywords   []domain.Keyword
	Aggregates []domain.Aggregate
	Report     Report
}

// Run converts to the persisted summary.
func (r Result) Run() domain.Run {
	return domain.Run{
		ID:           r.RunID,
		Loaded:       r.Report.Loaded,
		Duplicates:   r.Report.Duplicates,
		Missing:      len(r.Report.Incomplete),
		BadDates:     len(r.Report.BadDates),
		Output:       r.Report.Output,
		SchemaErrors: len(r.Report.SchemaErrors),
	}
}

// PipelineService runs the batch pipeline. Stages run strictly one after
// another over the whole corpus.
type PipelineService struct {
	opts     PipelineOptions
	keywords *KeywordExtractor
	themes   *ThemeAssigner
	enricher *SentimentEnricher
	repo     domain.ReviewRepository
}

func NewPipelineService(tok domain.Tokenizer, clf domain.Classifier, repo domain.ReviewRepository, opts PipelineOptions) *PipelineService {
	return &PipelineService{
		opts:     opts,
		keywords: NewKeywordExtractor(tok, opts.VocabSize),
		themes:   NewThemeAssigner(opts.Themes, tok),
		enricher: NewSentimentEnricher(clf, opts.BatchSize, opts.Workers),
		repo:     repo,
	}
}

func stage(name string, in int, start time.Time, out int) {
	observability.ObserveStage(name, in, out, time.Since(start))
	log.Info().Str("stage", name).Int("in", in).Int("out", out).Int("dropped", in-out).Msg("stage done")
}

// Clean runs schema mapping, dedup, completeness and date normalization.
func (s *PipelineService) Clean(batches []domain.RawBatch) ([]domain.Review, Report) {
	var rep Report

	t := time.Now()
	rs, errs := NormalizeSchema(batches, s.opts.DefaultSource)
	for _, err := range errs {
		log.Error().Err(err).Str("stage", "schema").Msg("source skipped")
	}
	rep.Loaded, rep.SchemaErrors = len(rs), errs
	stage("schema", len(rs), t, len(rs))

	t = time.Now()
	rep.DuplicateRows = DuplicateRows(rs, TextKey)
	deduped := Deduplicate(rs, TextKey)
	rep.Duplicates = len(rs) - len(deduped)
	stage("dedup", len(rs), t, len(deduped))

	t = time.Now()
	rep.Incomplete = IncompleteRows(deduped)
	complete := DropIncomplete(deduped)
	stage("completeness", len(deduped), t, len(complete))

	t = time.Now()
	dated, bad := NormalizeDates(complete)
	rep.BadDates = bad
	stage("dates", len(complete), t, len(dated))

	rep.Output = len(dated)
	return dated, rep
}

// Run executes the full pipeline. Zero input rows is a warning and yields
// an empty result; a classifier failure is returned as
// *domain.ClassificationError.
func (s *PipelineService) Run(ctx context.Context, batches []domain.RawBatch) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	logger := log.With().Str("run", res.RunID).Logger()

	total := 0
	for _, b := range batches {
		total += len(b.Records)
	}
	if total == 0 {
		logger.Warn().Err(domain.ErrEmptyInput).Int("sources", len(batches)).Msg("nothing to process")
		res.Reviews = []domain.Review{}
		for _, b := range batches {
			if _, err := mapBatch(b, s.opts.DefaultSource); err != nil {
				res.Report.SchemaErrors = append(res.Report.SchemaErrors, err)
			}
		}
		return res, nil
	}

	rs, rep := s.Clean(batches)
	res.Report = rep
	res.Reviews = rs
	if len(rs) == 0 {
		logger.Warn().Msg("no reviews survived cleaning")
		return res, nil
	}

	t := time.Now()
	res.Keywords = s.keywords.Extract(rs, s.opts.TopN)
	stage("keywords", len(rs), t, len(rs))

	t = time.Now()
	s.themes.Assign(rs)
	stage("themes", len(rs), t, len(rs))

	t = time.Now()
	if err := s.enricher.Enrich(ctx, rs); err != nil {
		return res, fmt.Errorf("sentiment: %w", err)
	}
	stage("sentiment", len(rs), t, len(rs))

	res.Aggregates = Aggregate(rs)
	logger.Info().
		Int("loaded", rep.Loaded).
		Int("duplicates", rep.Duplicates).
		Int("incomplete", len(rep.Incomplete)).
		Int("bad_dates", len(rep.BadDates)).
		Int("output", rep.Output).
		Int("groups", len(res.Aggregates)).
		Msg("pipeline completed")
	return res, nil
}

// Persist stores enriched reviews and the run summary. A nil repository
// makes this a no-op.
func (s *PipelineService) Persist(ctx context.Context, res Result) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.UpsertReviews(ctx, res.Reviews); err != nil {
		return fmt.Errorf("upsert reviews for run %s: %w", res.RunID, err)
	}
	if err := s.repo.SaveRun(ctx, res.Run()); err != nil {
		return fmt.Errorf("save run %s: %w", res.RunID, err)
	}
	return nil
}
