//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"review_insights/internal/adapters/csvio"
	httpserver "review_insights/internal/adapters/http_server"
	"review_insights/internal/adapters/nlp"
	"review_insights/internal/app"
	"review_insights/internal/domain"
	mysqlrepo "review_insights/internal/storage/mysql"
)

// ---------- helpers ----------
func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// keywordClassifier labels anything mentioning "crash" or "fee" negative.
type keywordClassifier struct{}

func (keywordClassifier) Classify(ctx context.Context, texts []string) ([]domain.Prediction, error) {
	out := make([]domain.Prediction, len(texts))
	for i, t := range texts {
		l := strings.ToLower(t)
		if strings.Contains(l, "crash") || strings.Contains(l, "fee") {
			out[i] = domain.Prediction{Label: domain.Negative, Confidence: 0.9}
		} else {
			out[i] = domain.Prediction{Label: domain.Positive, Confidence: 0.8}
		}
	}
	return out, nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, any, int) error    { return nil }
func (nopCache) Del(context.Context, string) error              { return nil }

// ---------- the test ----------
func TestHTTP_EndToEnd_PipelineToAPI(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviews",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Skipf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "reviews")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raw := "review_text,rating,date,bank_name,source\n" +
		"App keeps crashing after update,1,2024-04-01,,Google Play\n" +
		"Transfer fee is too high,2,2024-04-02,,Google Play\n" +
		"Very easy to use,5,2024-04-03,,Google Play\n" +
		"Very easy to use,5,2024-04-03,,Google Play\n" +
		"No rating here,,2024-04-04,,Google Play\n"
	batch, _, err := csvio.ParseRaw([]byte(raw), "Dashen_reviews_20240405_010000.csv", "Dashen")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	svc := app.NewPipelineService(nlp.NewSnowball(), keywordClassifier{}, repo, app.PipelineOptions{
		DefaultSource: "Google Play",
		TopN:          10,
		BatchSize:     2,
		Workers:       2,
		Themes: domain.ThemeVocabulary{
			"Reliability": {"crash", "update"},
			"Fees":        {"fee", "charge"},
		},
	})
	res, err := svc.Run(ctx, []domain.RawBatch{batch})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Report.Output != 3 {
		t.Fatalf("report = %+v", res.Report)
	}
	if err := svc.Persist(ctx, res); err != nil {
		t.Fatalf("persist: %v", err)
	}

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{Q: app.NewQueryService(repo, nopCache{}, time.Minute)})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// Hit the endpoint
	resp, err := http.Get(ts.URL + "/v1/themes?bank=Dashen")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var tc []domain.ThemeCount
	if err := json.NewDecoder(resp.Body).Decode(&tc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := map[string]int{}
	for _, c := range tc {
		got[c.Theme] = c.Count
	}
	if got["Reliability"] != 1 || got["Fees"] != 1 || got[domain.OtherTheme] != 1 {
		t.Fatalf("unexpected theme counts: %+v", tc)
	}
}
