package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"review_insights/internal/domain"
	"review_insights/internal/storage"
)

// upsertChunk bounds the placeholders in one statement well under MySQL's limit.
const upsertChunk = 500

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertReviews stores reviews and rebuilds their theme rows in one
// transaction per chunk.
func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	for start := 0; start < len(rs); start += upsertChunk {
		end := min(start+upsertChunk, len(rs))
		if err := r.upsertChunk(ctx, rs[start:end]); err != nil {
			return fmt.Errorf("upsert reviews [%d,%d): %w", start, end, err)
		}
	}
	return nil
}

func (r *Repo) upsertChunk(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*9)
	keys := make([]any, 0, len(rs))
	var themeValues []string
	var themeArgs []any
	seen := make(map[string]bool, len(rs))
	for _, rv := range rs {
		key := storage.ReviewKey(rv)
		if seen[key] {
			continue
		}
		seen[key] = true
		label, score := storage.SentimentValues(rv.Sentiment)
		values = append(values, "(?,?,?,?,?,?,?,?,?)")
		args = append(args,
			key,
			rv.BankName,
			rv.SourceName,
			rv.Text,
			storage.RatingValue(rv.Rating),
			storage.DateValue(rv.Date),
			label,
			score,
			storage.EncodeThemes(rv.Themes),
		)
		keys = append(keys, key)
		for _, th := range storage.UniqueThemes(rv.Themes) {
			themeValues = append(themeValues, "(?,?,?)")
			themeArgs = append(themeArgs, key, rv.BankName, th)
		}
	}

	if _, err := tx.ExecContext(ctx, insertReviewsPrefix+strings.Join(values, ",")+insertReviewsOnDup, args...); err != nil {
		return err
	}
	in := "(" + strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",") + ")"
	if _, err := tx.ExecContext(ctx, deleteThemesPrefix+in, keys...); err != nil {
		return err
	}
	if len(themeValues) > 0 {
		if _, err := tx.ExecContext(ctx, insertThemesPrefix+strings.Join(themeValues, ","), themeArgs...); err != nil {
			return err
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
			rating    sql.NullInt64
			date      sql.NullTime
			label     sql.NullString
			score     sql.NullFloat64
			themesRaw []byte
		)
		if err := rows.Scan(&rv.BankName, &rv.SourceName, &rv.Text, &rating, &date, &label, &score, &themesRaw); err != nil {
			return domain.ReviewsPage{}, err
		}
		if rating.Valid {
			n := int(rating.Int64)
			rv.Rating = &n
		}
		if date.Valid {
			rv.Date = date.Time.Format("2006-01-02")
		}
		if label.Valid && score.Valid {
			rv.Sentiment = &domain.Sentiment{Label: domain.SentimentLabel(label.String), Score: score.Float64}
		}
		rv.Themes = storage.DecodeThemes(themesRaw)
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
