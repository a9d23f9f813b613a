package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"review_insights/internal/domain"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	Store      string // mysql|sqlite|none
	MySQLDSN   string
	SQLitePath string
	RedisAddr  string
	RedisDB    int
	RedisPass  string
	CacheTTL   time.Duration

	InputFiles    []string
	OutputFile    string
	AggregateFile string
	DataDir       string
	SourceName    string
	TopN          int
	VocabSize     int

	Classifier      string // http|anthropic|openai
	ClassifyBatch   int
	ClassifyWorkers int
	ModelURL        string
	ModelName       string
	ModelToken      string
	AnthropicKey    string
	OpenAIKey       string

	ReviewSourceURL string
	ReviewSourceKey string
	ReviewCount     int
	MinReviews      int
	Schedule        string
	Workers         int

	SlackToken   string
	SlackChannel string

	ThemesFile string
	Themes     domain.ThemeVocabulary
	Apps       map[string]string // app id -> bank name
}

// DefaultThemes groups keywords into the recurring complaint and praise
// topics of mobile banking reviews.
var DefaultThemes = domain.ThemeVocabulary{
	"Account Access":          {"login", "log in", "password", "otp", "sign in", "verification", "pin"},
	"Transaction Performance": {"transfer", "transaction", "payment", "slow", "speed", "loading", "delay"},
	"User Interface":          {"ui", "design", "interface", "easy to use", "navigation", "layout"},
	"Customer Support":        {"support", "customer service", "help", "call center", "response"},
	"Reliability":             {"crash", "bug", "error", "freeze", "not working", "update"},
	"Fees":                    {"fee", "charge", "commission"},
}

var DefaultApps = map[string]string{
	"com.combanketh.mobilebanking": "CBE",
	"com.boa.boaMobileBanking":     "BOA",
	"com.dashen.dashensuperapp":    "Dashen",
}

// fileConfig is the optional THEMES_FILE document.
type fileConfig struct {
	Themes map[string][]string `yaml:"themes"`
	Apps   map[string]string   `yaml:"apps"`
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		Store:      strings.ToLower(env("STORE", "sqlite")),
		MySQLDSN:   env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reviews?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		SQLitePath: env("SQLITE_PATH", "reviews.db"),
		RedisAddr:  env("REDIS_ADDR", ""),
		RedisDB:    atoi("REDIS_DB", 0),
		RedisPass:  env("REDIS_PASSWORD", ""),
		CacheTTL:   time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		InputFiles:    splitList(env("INPUT_FILES", "")),
		OutputFile:    env("OUTPUT_FILE", "reviews_with_sentiment_themes.csv"),
		AggregateFile: env("AGGREGATE_FILE", "sentiment_by_bank_rating.csv"),
		DataDir:       env("DATA_DIR", "data"),
		SourceName:    env("SOURCE_NAME", "Google Play"),
		TopN:          atoi("TOP_N", 20),
		VocabSize:     atoi("VOCAB_SIZE", 1000),

		Classifier:      strings.ToLower(env("CLASSIFIER", "http")),
		ClassifyBatch:   atoi("CLASSIFY_BATCH_SIZE", 32),
		ClassifyWorkers: atoi("CLASSIFY_WORKERS", 1),
		ModelURL:        env("MODEL_URL", "http://localhost:8000/predict"),
		ModelName:       env("MODEL_NAME", "distilbert-base-uncased-finetuned-sst-2-english"),
		ModelToken:      env("MODEL_TOKEN", ""),
		AnthropicKey:    env("ANTHROPIC_API_KEY", ""),
		OpenAIKey:       env("OPENAI_API_KEY", ""),

		ReviewSourceURL: env("REVIEW_SOURCE_URL", "http://localhost:3000"),
		ReviewSourceKey: env("REVIEW_SOURCE_KEY", ""),
		ReviewCount:     atoi("REVIEW_COUNT", 5000),
		MinReviews:      atoi("MIN_REVIEWS", 400),
		Schedule:        env("INGEST_SCHEDULE", "0 1 * * *"),
		Workers:         atoi("INGEST_WORKERS", 3),

		SlackToken:   env("SLACK_TOKEN", ""),
		SlackChannel: env("SLACK_CHANNEL", ""),

		ThemesFile: env("THEMES_FILE", ""),
		Themes:     DefaultThemes,
		Apps:       DefaultApps,
	}

	if c.ThemesFile != "" {
		fc, err := readFileConfig(c.ThemesFile)
		if err != nil {
			log.Warn().Err(err).Str("path", c.ThemesFile).Msg("themes file unusable; using defaults")
		} else {
			if len(fc.Themes) > 0 {
				c.Themes = domain.ThemeVocabulary(fc.Themes)
			}
			if len(fc.Apps) > 0 {
				c.Apps = fc.Apps
			}
		}
	}
	if v := os.Getenv("APPS"); v != "" {
		if apps, err := parseApps(v); err != nil {
			log.Warn().Err(err).Msg("ignoring APPS")
		} else {
			c.Apps = apps
		}
	}
	return c
}

func readFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// parseApps reads "appID=Bank,appID=Bank".
func parseApps(v string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range splitList(v) {
		id, bank, ok := strings.Cut(pair, "=")
		id, bank = strings.TrimSpace(id), strings.TrimSpace(bank)
		if !ok || id == "" || bank == "" {
			return nil, fmt.Errorf("bad app entry %q, want appID=Bank", pair)
		}
		out[id] = bank
	}
	return out, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
