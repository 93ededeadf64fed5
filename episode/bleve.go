package episode

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
)

// BleveStore implements Store on a persistent Bleve index, so the
// failure history of past runs stays searchable across processes.
type BleveStore struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

var _ Store = (*BleveStore)(nil)

// BleveStoreConfig configures the Bleve-backed episode store.
type BleveStoreConfig struct {
	// BasePath is the directory holding the index.
	BasePath string
}

// NewBleveStore opens or creates the episode index.
func NewBleveStore(cfg BleveStoreConfig) (*BleveStore, error) {
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	indexPath := filepath.Join(cfg.BasePath, "episodes.bleve")

	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(indexPath, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open episode index: %w", err)
	}

	return &BleveStore{index: index}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = true

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name
	exact.Store = true

	stamp := bleve.NewDateTimeFieldMapping()
	stamp.Store = true

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("tree_id", exact)
	doc.AddFieldMappingsAt("event", exact)
	doc.AddFieldMappingsAt("kind", exact)
	doc.AddFieldMappingsAt("path", text)
	doc.AddFieldMappingsAt("message", text)
	doc.AddFieldMappingsAt("created_at", stamp)

	idx := bleve.NewIndexMapping()
	idx.DefaultMapping = doc
	return idx
}

// Append stores and indexes a record.
func (s *BleveStore) Append(_ context.Context, rec Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	if err := s.index.Index(rec.ID, rec); err != nil {
		return "", fmt.Errorf("failed to index record: %w", err)
	}
	return rec.ID, nil
}

// ByTree returns all records of one tree in append order.
func (s *BleveStore) ByTree(_ context.Context, treeID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	q := bleve.NewTermQuery(treeID)
	q.SetField("tree_id")

	req := bleve.NewSearchRequestOptions(q, 10000, 0, false)
	req.Fields = []string{"*"}
	req.SortBy([]string{"created_at"})

	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("episode search failed: %w", err)
	}
	return hitsToRecords(res), nil
}

// Search returns up to limit records matching the full-text query,
// best match first.
func (s *BleveStore) Search(_ context.Context, query string, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 10
	}

	q := bleve.NewMatchQuery(query)

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"*"}

	res, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("episode search failed: %w", err)
	}
	return hitsToRecords(res), nil
}

// Close releases the index.
func (s *BleveStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.index.Close()
}

func hitsToRecords(res *bleve.SearchResult) []Record {
	records := make([]Record, 0, len(res.Hits))
	for _, hit := range res.Hits {
		rec := Record{
			ID:      hit.ID,
			TreeID:  fieldString(hit.Fields, "tree_id"),
			Event:   fieldString(hit.Fields, "event"),
			Kind:    fieldString(hit.Fields, "kind"),
			Path:    fieldString(hit.Fields, "path"),
			Message: fieldString(hit.Fields, "message"),
		}
		if raw := fieldString(hit.Fields, "created_at"); raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				rec.CreatedAt = ts
			}
		}
		records = append(records, rec)
	}
	return records
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
