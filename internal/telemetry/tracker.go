// Package telemetry tracks how many tokens semantic search saves compared
// to pasting whole files into a model's context. Every search appends a row
// to a local SQLite database; stats aggregate totals and a 7-day trend.
package telemetry

import (
	"context"
	"database/sql"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	semerrors "github.com/semindex/semindex/internal/errors"
	"github.com/semindex/semindex/internal/store"
)

// charsPerToken is the rough chars-to-tokens conversion used throughout.
const charsPerToken = 4

// maxRows caps the searches table; older rows are pruned on insert.
const maxRows = 1000

// fallbackFullReadChars stands in when a project tree cannot be measured.
const fallbackFullReadChars = 50_000

// pricePerMTok is the USD price per million input tokens by model family.
var pricePerMTok = map[string]float64{
	"opus":   15.0,
	"sonnet": 3.0,
	"haiku":  0.80,
}

// sourceExts are the file suffixes counted when estimating a full read.
var sourceExts = map[string]struct{}{
	".py": {}, ".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {},
	".java": {}, ".kt": {}, ".kts": {}, ".sql": {}, ".go": {},
	".md": {}, ".yaml": {}, ".yml": {}, ".json": {}, ".toml": {},
}

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	project          TEXT NOT NULL,
	query            TEXT NOT NULL,
	result_tokens    INTEGER NOT NULL,
	full_read_tokens INTEGER NOT NULL
);
`

// Tracker records search usage in a SQLite database.
type Tracker struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the usage database at path.
func Open(path string) (*Tracker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, semerrors.StoreError("failed to create usage directory", err)
	}
	db, err := sql.Open(store.DriverName, path)
	if err != nil {
		return nil, semerrors.StoreError("failed to open usage database", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, semerrors.StoreError("failed to create usage schema", err)
	}
	return &Tracker{
		db:     db,
		logger: slog.Default().With("component", "telemetry"),
	}, nil
}

// Close closes the usage database.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Tokens converts a character count to an approximate token count.
func Tokens(chars int64) int64 {
	return chars / charsPerToken
}

// RecordSearch logs one search: the tokens actually returned and the tokens
// a full read of the project would have cost. The table is pruned to its row
// cap afterwards.
func (t *Tracker) RecordSearch(ctx context.Context, project, query string, resultChars, fullReadChars int64) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO searches (project, query, result_tokens, full_read_tokens) VALUES (?, ?, ?, ?)`,
		project, query, Tokens(resultChars), Tokens(fullReadChars))
	if err != nil {
		return semerrors.StoreError("failed to record search", err)
	}

	_, err = t.db.ExecContext(ctx,
		`DELETE FROM searches WHERE id NOT IN (SELECT id FROM searches ORDER BY id DESC LIMIT ?)`,
		maxRows)
	if err != nil {
		return semerrors.StoreError("failed to prune usage rows", err)
	}
	return nil
}

// DayStat is one day of the usage trend.
type DayStat struct {
	Date        string `json:"date"`
	Searches    int    `json:"searches"`
	TokensSaved int64  `json:"tokens_saved"`
}

// Stats summarizes recorded usage.
type Stats struct {
	Searches       int       `json:"searches"`
	TokensReturned int64     `json:"tokens_returned"`
	TokensSaved    int64     `json:"tokens_saved"`
	CostSavedUSD   float64   `json:"cost_saved_usd"`
	Trend          []DayStat `json:"trend"`
}

// Stats aggregates totals plus the last seven days, with savings priced at
// the sonnet input rate.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}

	err := t.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(result_tokens), 0),
		       COALESCE(SUM(MAX(full_read_tokens - result_tokens, 0)), 0)
		FROM searches`).Scan(&s.Searches, &s.TokensReturned, &s.TokensSaved)
	if err != nil {
		return nil, semerrors.StoreError("failed to aggregate usage", err)
	}
	s.CostSavedUSD = CostUSD(s.TokensSaved, "sonnet")

	rows, err := t.db.QueryContext(ctx, `
		SELECT date(created_at),
		       COUNT(*),
		       COALESCE(SUM(MAX(full_read_tokens - result_tokens, 0)), 0)
		FROM searches
		WHERE created_at >= datetime('now', '-7 days')
		GROUP BY date(created_at)
		ORDER BY date(created_at)`)
	if err != nil {
		return nil, semerrors.StoreError("failed to read usage trend", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d DayStat
		if err := rows.Scan(&d.Date, &d.Searches, &d.TokensSaved); err != nil {
			return nil, semerrors.StoreError("failed to scan usage trend", err)
		}
		s.Trend = append(s.Trend, d)
	}
	return s, rows.Err()
}

// CostUSD prices tokens at the given model family's input rate. Unknown
// families price as sonnet.
func CostUSD(tokens int64, model string) float64 {
	price, ok := pricePerMTok[model]
	if !ok {
		price = pricePerMTok["sonnet"]
	}
	return float64(tokens) / 1_000_000 * price
}

// EstimateFullReadChars measures how many characters of source a project
// holds, the cost baseline a search is compared against. Unreadable trees
// fall back to a flat estimate.
func EstimateFullReadChars(root string) int64 {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root {
				name := d.Name()
				if strings.HasPrefix(name, ".") || name == "node_modules" ||
					name == "__pycache__" || name == "vendor" {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if _, ok := sourceExts[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	if err != nil || total == 0 {
		return fallbackFullReadChars
	}
	return total
}
