package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_insights/internal/adapters/csvio"
	"review_insights/internal/adapters/observability"
	"review_insights/internal/adapters/reviewsource"
	"review_insights/internal/app"
	"review_insights/internal/shared"
)

func main() {
	once := flag.Bool("once", false, "run a single acquisition and exit")
	flag.Parse()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("base", cfg.ReviewSourceURL).
		Int("workers", cfg.Workers).
		Int("reviews", cfg.ReviewCount).
		Str("schedule", cfg.Schedule).
		Msg("ingestor starting")

	client, err := reviewsource.New(cfg.ReviewSourceURL, cfg.ReviewSourceKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize review source client")
	}
	ing := app.NewIngestionService(client, app.IngestOptions{
		Count:      cfg.ReviewCount,
		MinReviews: cfg.MinReviews,
		SourceName: cfg.SourceName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observability.Serve()

	// run once at startup so a fresh deployment has data before the first tick
	ingestAll(ctx, cfg, ing)
	if *once {
		return
	}

	sched, err := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(cfg.Schedule)
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Schedule).Msg("invalid INGEST_SCHEDULE")
	}
	for {
		next := sched.Next(time.Now())
		log.Info().Time("next", next).Msg("waiting for next acquisition")
		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			log.Info().Msg("ingestor stopped")
			return
		case <-t.C:
			ingestAll(ctx, cfg, ing)
		}
	}
}

func ingestAll(ctx context.Context, cfg shared.Config, ing *app.IngestionService) {
	ids := make([]string, 0, len(cfg.Apps))
	for id := range cfg.Apps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sem := semaphore.NewWeighted(int64(max(1, cfg.Workers)))
	var wg sync.WaitGroup
	stamp := time.Now().Format("20060102_150405")

	for _, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("acquisition interrupted")
			break
		}

		wg.Add(1)
		go func(appID, bank string) {
			defer wg.Done()
			defer sem.Release(1)

			rs, err := ing.Acquire(ctx, appID, bank)
			if err != nil {
				log.Warn().Str("app", appID).Err(err).Msg("ingest failed")
				return
			}
			path := filepath.Join(cfg.DataDir, bank+"_reviews_"+stamp+".csv")
			if err := csvio.WriteFile(path, func(w io.Writer) error { return csvio.WriteRaw(w, rs) }); err != nil {
				log.Error().Str("app", appID).Str("path", path).Err(err).Msg("write failed")
				return
			}
			log.Info().Str("app", appID).Str("path", path).Int("reviews", len(rs)).Msg("ingest ok")
		}(id, cfg.Apps[id])
	}

	wg.Wait()
	log.Info().Msg("ingestion completed")
}
