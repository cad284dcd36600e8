// Package search provides a full-text audit index over task histories.
//
// The event log remains the source of truth; the index is a derived view
// that can always be rebuilt by re-reading histories. Auditors query it to
// answer questions like "show every escalation for tenant X" or "which
// entries mention the franchise tax deadline" without scanning raw logs.
package search

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
	"github.com/gianmatteo-arcana/engine-lever-sub006/taskctx"
)

// Common errors.
var (
	// ErrClosed indicates the index has been closed.
	ErrClosed = errors.Internal("history index is closed")
)

// Config configures a history index.
type Config struct {
	// Path is the on-disk index directory. Empty means in-memory only.
	Path string
}

// entryDocument is the indexed shape of one context entry. Reasoning is the
// only analyzed text field; everything else is exact-match metadata.
type entryDocument struct {
	ContextID      string    `json:"contextId"`
	SequenceNumber uint64    `json:"sequenceNumber"`
	Operation      string    `json:"operation"`
	ActorType      string    `json:"actorType"`
	ActorID        string    `json:"actorId"`
	Reasoning      string    `json:"reasoning"`
	Timestamp      time.Time `json:"timestamp"`
}

// HistoryIndex indexes context entries for audit queries.
type HistoryIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed atomic.Bool
}

// New opens or creates a history index. An empty path builds a memory-only
// index that is lost on close.
func New(cfg Config) (*HistoryIndex, error) {
	var (
		index bleve.Index
		err   error
	)
	if cfg.Path == "" {
		index, err = bleve.NewMemOnly(buildIndexMapping())
	} else if _, statErr := os.Stat(cfg.Path); os.IsNotExist(statErr) {
		index, err = bleve.New(cfg.Path, buildIndexMapping())
	} else {
		index, err = bleve.Open(cfg.Path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening history index")
	}
	return &HistoryIndex{index: index}, nil
}

// buildIndexMapping maps reasoning as analyzed text and the bookkeeping
// fields as keywords.
func buildIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name

	keyword := bleve.NewKeywordFieldMapping()
	date := bleve.NewDateTimeFieldMapping()
	number := bleve.NewNumericFieldMapping()

	doc.AddFieldMappingsAt("reasoning", text)
	doc.AddFieldMappingsAt("contextId", keyword)
	doc.AddFieldMappingsAt("operation", keyword)
	doc.AddFieldMappingsAt("actorType", keyword)
	doc.AddFieldMappingsAt("actorId", keyword)
	doc.AddFieldMappingsAt("sequenceNumber", number)
	doc.AddFieldMappingsAt("timestamp", date)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}

// IndexEntry adds one entry to the index. Re-indexing the same entry is
// idempotent: the document ID is derived from context and sequence number.
func (ix *HistoryIndex) IndexEntry(contextID string, entry taskctx.ContextEntry) error {
	if ix.closed.Load() {
		return ErrClosed
	}
	if contextID == "" {
		return errors.InvalidInput("context ID is required")
	}

	doc := entryDocument{
		ContextID:      contextID,
		SequenceNumber: entry.SequenceNumber,
		Operation:      entry.Operation,
		ActorType:      string(entry.Actor.Type),
		ActorID:        entry.Actor.ID,
		Reasoning:      entry.Reasoning,
		Timestamp:      entry.Timestamp,
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if err := ix.index.Index(docID(contextID, entry.SequenceNumber), doc); err != nil {
		return errors.Wrap(err, "indexing entry")
	}
	return nil
}

// IndexHistory reads a context's full history from the store and indexes
// every entry. Safe to call repeatedly; entries are overwritten in place.
func (ix *HistoryIndex) IndexHistory(ctx context.Context, store taskctx.EventStore, contextID string) (int, error) {
	entries, err := store.Read(ctx, contextID, 0)
	if err != nil {
		return 0, err
	}
	for i := range entries {
		if err := ix.IndexEntry(contextID, entries[i]); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

// Query selects entries. Zero-valued fields are unconstrained; Text matches
// against reasoning.
type Query struct {
	ContextID string
	Operation string
	ActorType string
	ActorID   string
	Text      string
	Limit     int
}

// Hit is one matching entry reference. SequenceNumber points back into the
// authoritative log.
type Hit struct {
	ContextID      string
	SequenceNumber uint64
	Operation      string
	ActorType      string
	ActorID        string
	Reasoning      string
	Score          float64
}

// Search runs an audit query. Results are ordered by relevance when Text is
// set, otherwise by sequence number.
func (ix *HistoryIndex) Search(q Query) ([]Hit, error) {
	if ix.closed.Load() {
		return nil, ErrClosed
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	var musts []query.Query
	for field, value := range map[string]string{
		"contextId": q.ContextID,
		"operation": q.Operation,
		"actorType": q.ActorType,
		"actorId":   q.ActorID,
	} {
		if value == "" {
			continue
		}
		tq := bleve.NewTermQuery(value)
		tq.SetField(field)
		musts = append(musts, tq)
	}
	if q.Text != "" {
		mq := bleve.NewMatchQuery(q.Text)
		mq.SetField("reasoning")
		musts = append(musts, mq)
	}

	var root query.Query
	switch len(musts) {
	case 0:
		root = bleve.NewMatchAllQuery()
	case 1:
		root = musts[0]
	default:
		bq := bleve.NewBooleanQuery()
		for _, m := range musts {
			bq.AddMust(m)
		}
		root = bq
	}

	req := bleve.NewSearchRequest(root)
	req.Size = limit
	req.Fields = []string{"*"}
	if q.Text == "" {
		req.SortBy([]string{"sequenceNumber"})
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	result, err := ix.index.Search(req)
	if err != nil {
		return nil, errors.Wrap(err, "history search failed")
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hit := Hit{Score: h.Score}
		if v, ok := h.Fields["contextId"].(string); ok {
			hit.ContextID = v
		}
		if v, ok := h.Fields["sequenceNumber"].(float64); ok {
			hit.SequenceNumber = uint64(v)
		}
		if v, ok := h.Fields["operation"].(string); ok {
			hit.Operation = v
		}
		if v, ok := h.Fields["actorType"].(string); ok {
			hit.ActorType = v
		}
		if v, ok := h.Fields["actorId"].(string); ok {
			hit.ActorID = v
		}
		if v, ok := h.Fields["reasoning"].(string); ok {
			hit.Reasoning = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Count returns the number of indexed entries.
func (ix *HistoryIndex) Count() (uint64, error) {
	if ix.closed.Load() {
		return 0, ErrClosed
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// Close releases the index. Further calls fail with ErrClosed.
func (ix *HistoryIndex) Close() error {
	if !ix.closed.CompareAndSwap(false, true) {
		return nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}

func docID(contextID string, seq uint64) string {
	return fmt.Sprintf("%s/%d", contextID, seq)
}
