package sqlite

const schemaSQL = `
CREATE TABLE IF NOT EXISTS reviews (
  review_key      TEXT PRIMARY KEY,
  bank_name       TEXT NOT NULL,
  source_name     TEXT NOT NULL,
  text            TEXT NOT NULL,
  rating          INTEGER,
  review_date     TEXT,
  sentiment_label TEXT,
  sentiment_score REAL,
  themes          TEXT NOT NULL DEFAULT '[]',
  created_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_reviews_bank_date ON reviews (bank_name, review_date);

CREATE TABLE IF NOT EXISTS review_themes (
  review_key TEXT NOT NULL REFERENCES reviews (review_key) ON DELETE CASCADE,
  bank_name  TEXT NOT NULL,
  theme      TEXT NOT NULL,
  PRIMARY KEY (review_key, theme)
);
CREATE INDEX IF NOT EXISTS idx_review_themes_bank_theme ON review_themes (bank_name, theme);

CREATE TABLE IF NOT EXISTS pipeline_runs (
  id            TEXT PRIMARY KEY,
  loaded        INTEGER NOT NULL,
  schema_errors INTEGER NOT NULL,
  duplicates    INTEGER NOT NULL,
  missing       INTEGER NOT NULL,
  bad_dates     INTEGER NOT NULL,
  output        INTEGER NOT NULL,
  created_at    TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

const upsertReviewSQL = `
INSERT INTO reviews (review_key, bank_name, source_name, text, rating, review_date, sentiment_label, sentiment_score, themes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (review_key) DO UPDATE SET
  rating          = COALESCE(excluded.rating, reviews.rating),
  sentiment_label = COALESCE(excluded.sentiment_label, reviews.sentiment_label),
  sentiment_score = COALESCE(excluded.sentiment_score, reviews.sentiment_score),
  themes          = excluded.themes,
  updated_at      = CURRENT_TIMESTAMP
`

const deleteThemesSQL = `DELETE FROM review_themes WHERE review_key = ?`

const insertThemeSQL = `INSERT OR IGNORE INTO review_themes (review_key, bank_name, theme) VALUES (?, ?, ?)`

const insertRunSQL = `
INSERT INTO pipeline_runs (id, loaded, schema_errors, duplicates, missing, bad_dates, output)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
  loaded        = excluded.loaded,
  schema_errors = excluded.schema_errors,
  duplicates    = excluded.duplicates,
  missing       = excluded.missing,
  bad_dates     = excluded.bad_dates,
  output        = excluded.output
`

const listReviewsSQL = `
SELECT r.bank_name, r.source_name, r.text, r.rating, r.review_date, r.sentiment_label, r.sentiment_score, r.themes
FROM reviews r
WHERE (? = '' OR r.bank_name = ? COLLATE NOCASE)
  AND (? = '' OR EXISTS (
        SELECT 1 FROM review_themes t WHERE t.review_key = r.review_key AND t.theme = ? COLLATE NOCASE))
ORDER BY r.review_date DESC, r.review_key
LIMIT ?
`

const aggregatesSQL = `
SELECT bank_name, rating, AVG(sentiment_score), COUNT(*)
FROM reviews
WHERE sentiment_score IS NOT NULL
  AND rating IS NOT NULL
  AND (? = '' OR bank_name = ? COLLATE NOCASE)
GROUP BY bank_name, rating
ORDER BY bank_name, rating
`

const themeCountsSQL = `
SELECT bank_name, theme, COUNT(*) AS n
FROM review_themes
WHERE (? = '' OR bank_name = ? COLLATE NOCASE)
GROUP BY bank_name, theme
ORDER BY bank_name, n DESC, theme
`
