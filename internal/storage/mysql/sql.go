package mysql

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO reviews\n  (review_key, bank_name, source_name, `text`, rating, review_date, sentiment_label, sentiment_score, themes)\nVALUES "

// Use VALUES(col) for broad compatibility; COALESCE keeps old value if new is NULL.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  rating          = COALESCE(VALUES(rating), reviews.rating),\n" +
	"  sentiment_label = COALESCE(VALUES(sentiment_label), reviews.sentiment_label),\n" +
	"  sentiment_score = COALESCE(VALUES(sentiment_score), reviews.sentiment_score),\n" +
	"  themes          = VALUES(themes)\n"

const deleteThemesPrefix = "DELETE FROM review_themes WHERE review_key IN "

const insertThemesPrefix = "INSERT INTO review_themes (review_key, bank_name, theme) VALUES "

const insertRunSQL = `
INSERT INTO pipeline_runs (id, loaded, schema_errors, duplicates, missing, bad_dates, output)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  loaded        = VALUES(loaded),
  schema_errors = VALUES(schema_errors),
  duplicates    = VALUES(duplicates),
  missing       = VALUES(missing),
  bad_dates     = VALUES(bad_dates),
  output        = VALUES(output)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Empty bank/theme parameters disable the corresponding filter.
const listReviewsSQL = "SELECT r.bank_name, r.source_name, r.`text`, r.rating, r.review_date, r.sentiment_label, r.sentiment_score, r.themes\n" + `
FROM reviews r
WHERE (? = '' OR r.bank_name = ?)
  AND (? = '' OR EXISTS (
        SELECT 1 FROM review_themes t WHERE t.review_key = r.review_key AND t.theme = ?))
ORDER BY r.review_date DESC, r.review_key
LIMIT ?
`

// Rows without a sentiment score never reach a group.
const aggregatesSQL = `
SELECT bank_name, rating, AVG(sentiment_score), COUNT(*)
FROM reviews
WHERE sentiment_score IS NOT NULL
  AND rating IS NOT NULL
  AND (? = '' OR bank_name = ?)
GROUP BY bank_name, rating
ORDER BY bank_name, rating
`

const themeCountsSQL = `
SELECT bank_name, theme, COUNT(*) AS n
FROM review_themes
WHERE (? = '' OR bank_name = ?)
GROUP BY bank_name, theme
ORDER BY bank_name, n DESC, theme
`
