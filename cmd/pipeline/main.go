package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"review_insights/internal/adapters/csvio"
	"review_insights/internal/adapters/nlp"
	"review_insights/internal/adapters/observability"
	redisad "review_insights/internal/adapters/redis"
	"review_insights/internal/adapters/sentiment"
	"review_insights/internal/adapters/slack"
	"review_insights/internal/app"
	"review_insights/internal/domain"
	"review_insights/internal/report"
	"review_insights/internal/shared"
	mysqlrepo "review_insights/internal/storage/mysql"
	"review_insights/internal/storage/sqlite"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	flag.Parse()
	files := cfg.InputFiles
	if flag.NArg() > 0 {
		files = flag.Args()
	}
	if len(files) == 0 {
		matches, _ := filepath.Glob(filepath.Join(cfg.DataDir, "*_reviews_*.csv"))
		sort.Strings(matches)
		files = matches
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observability.Serve()
	if err := run(ctx, cfg, files); err != nil {
		log.Fatal().Err(err).Msg("pipeline failed")
	}
}

func run(ctx context.Context, cfg shared.Config, files []string) error {
	var batches []domain.RawBatch
	for _, f := range files {
		b, warns, err := csvio.ReadRawFile(f, "")
		if err != nil {
			return err
		}
		for _, w := range warns {
			log.Warn().Str("file", f).Int("row", w.Row).Msg(w.Message)
		}
		log.Info().Str("file", f).Str("bank", b.Bank).Int("rows", len(b.Records)).Msg("loaded")
		batches = append(batches, b)
	}

	var cache *redisad.Cache
	if cfg.RedisAddr != "" {
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := cache.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable; running without cache")
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	clf, err := newClassifier(cfg)
	if err != nil {
		return err
	}
	if cache != nil {
		clf = sentiment.NewCached(clf, cache, cfg.Classifier+":"+cfg.ModelName)
	}

	repo, closeRepo, err := openRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc := app.NewPipelineService(nlp.NewSnowball(), clf, repo, app.PipelineOptions{
		DefaultSource: cfg.SourceName,
		TopN:          cfg.TopN,
		VocabSize:     cfg.VocabSize,
		BatchSize:     cfg.ClassifyBatch,
		Workers:       cfg.ClassifyWorkers,
		Themes:        cfg.Themes,
	})

	start := time.Now()
	res, err := svc.Run(ctx, batches)
	if err != nil {
		var ce *domain.ClassificationError
		if errors.As(err, &ce) {
			log.Error().Int("start", ce.Start).Int("end", ce.End).Msg("classifier batch failed")
		}
		return err
	}

	if err := csvio.WriteFile(cfg.OutputFile, func(w io.Writer) error { return csvio.WriteEnriched(w, res.Reviews) }); err != nil {
		return fmt.Errorf("write %s: %w", cfg.OutputFile, err)
	}
	if err := csvio.WriteFile(cfg.AggregateFile, func(w io.Writer) error { return csvio.WriteAggregates(w, res.Aggregates) }); err != nil {
		return fmt.Errorf("write %s: %w", cfg.AggregateFile, err)
	}

	if err := svc.Persist(ctx, res); err != nil {
		return err
	}
	if cache != nil && repo != nil {
		app.NewQueryService(repo, cache, cfg.CacheTTL).Invalidate(ctx, banks(res.Reviews)...)
	}

	fmt.Println("Top keywords")
	_ = report.Keywords(os.Stdout, res.Keywords)
	fmt.Println()
	fmt.Println("Mean sentiment by bank and rating")
	_ = report.Aggregates(os.Stdout, res.Aggregates)

	if cfg.SlackToken != "" {
		n, err := slack.New(cfg.SlackToken, cfg.SlackChannel)
		if err != nil {
			log.Warn().Err(err).Msg("slack disabled")
		} else if err := n.Notify(ctx, report.Summary(res)); err != nil {
			log.Warn().Err(err).Msg("slack notify failed")
		}
	}

	log.Info().Str("run", res.RunID).Dur("took", time.Since(start)).Str("output", cfg.OutputFile).Msg("done")
	return nil
}

func newClassifier(cfg shared.Config) (domain.Classifier, error) {
	switch cfg.Classifier {
	case "anthropic":
		return sentiment.NewAnthropicClassifier(cfg.AnthropicKey, cfg.ModelName)
	case "openai":
		return sentiment.NewOpenAIClassifier(cfg.OpenAIKey, cfg.ModelName)
	case "http", "":
		return sentiment.NewModelClient(cfg.ModelURL, cfg.ModelToken, 5, 0)
	default:
		return nil, fmt.Errorf("unknown CLASSIFIER %q (http|anthropic|openai)", cfg.Classifier)
	}
}

func openRepo(ctx context.Context, cfg shared.Config) (domain.ReviewRepository, func(), error) {
	switch cfg.Store {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		return mysqlrepo.New(db), func() { db.Close() }, nil
	case "sqlite":
		r, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	case "none", "":
		return nil, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE %q (mysql|sqlite|none)", cfg.Store)
	}
}

func banks(rs []domain.Review) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rs {
		if !seen[r.BankName] {
			seen[r.BankName] = true
			out = append(out, r.BankName)
		}
	}
	return out
}
