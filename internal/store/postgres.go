// Package store is the Postgres collaborator: it pages the location hierarchy
// and scraped listings into memory and persists match results and the
// unmatched review queue. The matching engine itself never touches it.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
)

const (
	// pageSize matches the REST gateway's row cap so offsets line up with
	// what the scraper side sees.
	pageSize = 1000

	// insertBatchSize keeps ingest transactions small enough that one bad
	// row only costs one batch.
	insertBatchSize = 100
)

// Store wraps a pgx pool with the queries the batch runner needs.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New connects a pool and verifies the connection.
func New(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// LoadHierarchy pages every sv_loc_group{2..5} table into raw rows. A level
// that fails to load is logged and left empty; the engine degrades to the
// levels it has rather than aborting the run.
func (s *Store) LoadHierarchy(ctx context.Context) (map[int][]models.HierarchyRow, error) {
	rowsByLevel := make(map[int][]models.HierarchyRow, len(models.Levels))

	for _, level := range models.Levels {
		rows, err := s.loadLevel(ctx, level)
		if err != nil {
			s.logger.Warn("hierarchy level failed to load",
				zap.Int("level", level), zap.Error(err))
			rowsByLevel[level] = nil
			continue
		}
		rowsByLevel[level] = rows
		s.logger.Info("loaded hierarchy level",
			zap.Int("level", level), zap.Int("rows", len(rows)))
	}

	return rowsByLevel, nil
}

func (s *Store) loadLevel(ctx context.Context, level int) ([]models.HierarchyRow, error) {
	table := fmt.Sprintf("sv_loc_group%d", level)
	var all []models.HierarchyRow

	for offset := 0; ; offset += pageSize {
		query := fmt.Sprintf(`
			SELECT id, COALESCE(loc_name, ''), COALESCE(loc_name_search, ''),
			       COALESCE(details, ''), parent_loc_group
			FROM %s
			ORDER BY id
			LIMIT $1 OFFSET $2
		`, table)

		rows, err := s.pool.Query(ctx, query, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", table, err)
		}

		page, err := scanHierarchyRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		all = append(all, page...)

		if len(page) < pageSize {
			break
		}
	}

	return all, nil
}

func scanHierarchyRows(rows pgx.Rows) ([]models.HierarchyRow, error) {
	defer rows.Close()

	var out []models.HierarchyRow
	for rows.Next() {
		var r models.HierarchyRow
		if err := rows.Scan(&r.ID, &r.DisplayName, &r.SearchName, &r.DetailsText, &r.ParentID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const listingColumns = `external_id, COALESCE(title, ''), location, details, COALESCE(description, ''), COALESCE(url, ''), COALESCE(source, '')`

// ActiveListings pages all active listings. limit 0 means no limit.
func (s *Store) ActiveListings(ctx context.Context, limit int) ([]models.Listing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM scrapped_data
		WHERE active = true
		ORDER BY external_id
		LIMIT $1 OFFSET $2
	`, listingColumns)
	return s.pageListings(ctx, query, limit)
}

// UnmatchedListings pages active listings that have no match row yet,
// supporting incremental (--new) runs.
func (s *Store) UnmatchedListings(ctx context.Context, limit int) ([]models.Listing, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM scrapped_data sd
		LEFT JOIN listing_location_match m ON m."externalId" = sd.external_id
		WHERE sd.active = true AND m."externalId" IS NULL
		ORDER BY sd.external_id
		LIMIT $1 OFFSET $2
	`, listingColumns)
	return s.pageListings(ctx, query, limit)
}

func (s *Store) pageListings(ctx context.Context, query string, limit int) ([]models.Listing, error) {
	var all []models.Listing

	for offset := 0; ; offset += pageSize {
		size := pageSize
		if limit > 0 && limit-len(all) < size {
			size = limit - len(all)
		}
		if size <= 0 {
			break
		}

		rows, err := s.pool.Query(ctx, query, size, offset)
		if err != nil {
			return nil, fmt.Errorf("store: query listings: %w", err)
		}

		page, err := scanListings(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan listings: %w", err)
		}
		all = append(all, page...)

		if len(page) < size {
			break
		}
	}

	return all, nil
}

func scanListings(rows pgx.Rows) ([]models.Listing, error) {
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(&l.ExternalID, &l.Title, &l.Location, &l.Details,
			&l.Description, &l.URL, &l.Source); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// InsertMatches writes match records to the ingest view in batches. The view
// trigger upserts into listing_location_match.
func (s *Store) InsertMatches(ctx context.Context, records []models.MatchRecord) error {
	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}

		batch := &pgx.Batch{}
		for _, r := range records[start:end] {
			batch.Queue(`
				INSERT INTO listing_location_match_ingest
					("externalId", "locGroup2Id", "locGroup3Id", "locGroup4Id", "locGroup5Id",
					 "matchLevel", "matchScore", "matchSource", "matchedText")
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`, r.ExternalID, r.LocGroup2ID, r.LocGroup3ID, r.LocGroup4ID, r.LocGroup5ID,
				r.MatchLevel, r.MatchScore, r.MatchSource, r.MatchedText)
		}

		if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("store: insert match batch %d-%d: %w", start, end, err)
		}
		s.logger.Debug("inserted match batch", zap.Int("from", start), zap.Int("to", end))
	}

	return nil
}

// UpsertUnmatched writes review-queue rows, one upsert per listing so a
// single bad row cannot sink the rest.
func (s *Store) UpsertUnmatched(ctx context.Context, listings []models.UnmatchedListing) (int, error) {
	inserted := 0
	for _, u := range listings {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO unmatched_locations
				(external_id, title, location_data, url, searched_text, source, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (external_id) DO UPDATE SET
				title = EXCLUDED.title,
				location_data = EXCLUDED.location_data,
				searched_text = EXCLUDED.searched_text,
				status = EXCLUDED.status
		`, u.ExternalID, u.Title, u.LocationData, u.URL, u.SearchedText, u.Source, u.Status)
		if err != nil {
			s.logger.Warn("unmatched upsert failed",
				zap.Int64("external_id", u.ExternalID), zap.Error(err))
			continue
		}
		inserted++
	}
	return inserted, nil
}
