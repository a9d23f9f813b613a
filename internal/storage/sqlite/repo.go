// Package sqlite is a single-file ReviewRepository for local runs where no
// MySQL server is available.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"review_insights/internal/domain"
	"review_insights/internal/storage"
)

type Repo struct{ db *sql.DB }

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*Repo, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; one connection also keeps a :memory: database alive
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func dateText(s string) any {
	if storage.DateValue(s) == nil {
		return nil
	}
	return s
}

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	up, err := tx.PrepareContext(ctx, upsertReviewSQL)
	if err != nil {
		return err
	}
	defer up.Close()
	del, err := tx.PrepareContext(ctx, deleteThemesSQL)
	if err != nil {
		return err
	}
	defer del.Close()
	ins, err := tx.PrepareContext(ctx, insertThemeSQL)
	if err != nil {
		return err
	}
	defer ins.Close()

	for i, rv := range rs {
		key := storage.ReviewKey(rv)
		label, score := storage.SentimentValues(rv.Sentiment)
		if _, err := up.ExecContext(ctx, key, rv.BankName, rv.SourceName, rv.Text,
			storage.RatingValue(rv.Rating), dateText(rv.Date), label, score, storage.EncodeThemes(rv.Themes)); err != nil {
			return fmt.Errorf("upsert review %d: %w", i, err)
		}
		if _, err := del.ExecContext(ctx, key); err != nil {
			return err
		}
		for _, th := range storage.UniqueThemes(rv.Themes) {
			if _, err := ins.ExecContext(ctx, key, rv.BankName, th); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (r *Repo) SaveRun(ctx context.Context, run domain.Run) error {
	_, err := r.db.ExecContext(ctx, insertRunSQL,
		run.ID, run.Loaded, run.SchemaErrors, run.Duplicates, run.Missing, run.BadDates, run.Output)
	return err
}

func (r *Repo) ListReviews(ctx context.Context, q domain.ReviewQuery) (domain.ReviewsPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, q.Bank, q.Bank, q.Theme, q.Theme, limit)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var (
			rating sql.NullInt64
			date   sql.NullString
			label  sql.NullString
			score  sql.NullFloat64
			themes sql.NullString
		)
		if err := rows.Scan(&rv.BankName, &rv.SourceName, &rv.Text, &rating, &date, &label, &score, &themes); err != nil {
			return domain.ReviewsPage{}, err
		}
		if rating.Valid {
			n := int(rating.Int64)
			rv.Rating = &n
		}
		rv.Date = date.String
		if label.Valid && score.Valid {
			rv.Sentiment = &domain.Sentiment{Label: domain.SentimentLabel(label.String), Score: score.Float64}
		}
		rv.Themes = storage.DecodeThemes([]byte(themes.String))
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: out}, nil
}

func (r *Repo) Aggregates(ctx context.Context, bank string) ([]domain.Aggregate, error) {
	rows, err := r.db.QueryContext(ctx, aggregatesSQL, bank, bank)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Aggregate{}
	for rows.Next() {
		var a domain.Aggregate
		if err := rows.Scan(&a.Bank, &a.Rating, &a.MeanScore, &a.Count); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) ThemeCounts(ctx context.Context, bank string) ([]domain.ThemeCount, error) {
	rows, err := r.db.QueryContext(ctx, themeCountsSQL, bank, bank)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ThemeCount{}
	for rows.Next() {
		var tc domain.ThemeCount
		if err := rows.Scan(&tc.Bank, &tc.Theme, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
