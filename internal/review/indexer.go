package review

import (
	"fmt"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/chivocasa/listing-locator/app/models"
)

const indexBatchSize = 1000

// IndexerConfig configures the Meilisearch connection for the review index.
type IndexerConfig struct {
	Host      string
	APIKey    string
	IndexName string
}

// Indexer mirrors the unmatched review queue into Meilisearch so reviewers
// can search it by title, location text or source site.
type Indexer struct {
	client    meilisearch.ServiceManager
	indexName string
	logger    *zap.Logger
}

// NewIndexer connects a Meilisearch client and verifies it is reachable.
func NewIndexer(cfg IndexerConfig, logger *zap.Logger) (*Indexer, error) {
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("review: meilisearch unreachable: %w", err)
	}
	return &Indexer{client: client, indexName: cfg.IndexName, logger: logger}, nil
}

// EnsureSettings applies the searchable/filterable attributes for the queue.
func (ix *Indexer) EnsureSettings() error {
	index := ix.client.Index(ix.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"title", "searched_text", "source"},
		FilterableAttributes: []string{"status", "source"},
		SortableAttributes:   []string{"external_id"},
	})
	if err != nil {
		return fmt.Errorf("review: update index settings: %w", err)
	}

	ix.logger.Info("review index settings applied", zap.Int64("task_uid", task.TaskUID))
	return nil
}

// IndexUnmatched upserts review-queue rows into the index in batches.
func (ix *Indexer) IndexUnmatched(listings []models.UnmatchedListing) error {
	if len(listings) == 0 {
		return nil
	}
	index := ix.client.Index(ix.indexName)

	docs := make([]map[string]interface{}, 0, len(listings))
	for _, u := range listings {
		docs = append(docs, map[string]interface{}{
			"external_id":   u.ExternalID,
			"title":         u.Title,
			"searched_text": u.SearchedText,
			"url":           u.URL,
			"source":        u.Source,
			"status":        u.Status,
		})
	}

	for start := 0; start < len(docs); start += indexBatchSize {
		end := start + indexBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		task, err := index.AddDocuments(docs[start:end], "external_id")
		if err != nil {
			return fmt.Errorf("review: index batch %d-%d: %w", start, end, err)
		}
		ix.logger.Debug("indexed review batch",
			zap.Int("from", start), zap.Int("to", end), zap.Int64("task_uid", task.TaskUID))
	}

	ix.logger.Info("review queue indexed", zap.Int("documents", len(docs)))
	return nil
}
