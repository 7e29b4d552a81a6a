// Package catalog adapts the redis store to the retrieval collaborator
// contracts: nearest-neighbor search over mentor embeddings and point/paged
// reads of mentor details.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mentorlink/mentordex/internal/db"
	"github.com/mentorlink/mentordex/internal/domain"
	"github.com/mentorlink/mentordex/internal/domain/mentor"
)

const (
	keyPrefix = domain.KeyPrefix + "mentor:"
	indexName = domain.KeyPrefix + "mentor:idx"
)

// store is the consumer interface for catalog operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig carries index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the VectorIndex and ProfileStore contracts of the
// recommend and evaluate use cases.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a catalog repository.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim}
}

// WithHNSW overrides HNSW build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the mentor FT index if it does not exist yet. The read
// path assumes the index is present; ingestion happens outside this service.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     indexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "id", Type: db.IndexFieldTag},
			{Name: "jobs", Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: "skills", Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: "verified", Type: db.IndexFieldTag},
			{Name: "rating_avg", Type: db.IndexFieldNumeric},
			{Name: "introduction", Type: db.IndexFieldText},
			{
				Name:              "embedding",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// IndexReady reports whether the mentor index exists. Used by health checks;
// a missing index means searches will fail until EnsureIndex runs.
func (r *Repo) IndexReady(ctx context.Context) (bool, error) {
	return r.store.IndexExists(ctx, indexName)
}

// SearchSimilar returns the topN nearest mentors by embedding similarity,
// ordered descending. excludeID (when > 0) is removed via a tag pre-filter
// so self-recommendation never reaches the pipeline.
func (r *Repo) SearchSimilar(
	ctx context.Context, vector []float32, topN int, excludeID int64,
) ([]mentor.Hit, error) {
	q := &db.KNNQuery{
		IndexName:    indexName,
		Vector:       vector,
		K:            topN,
		ReturnFields: []string{"id", "__embedding_score"},
	}
	if excludeID > 0 {
		q.PreFilter = fmt.Sprintf("-@id:{%d}", excludeID)
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}

	return parseHits(sr), nil
}

// GetDetail fetches a single mentor record. A missing or empty hash maps to
// domain.ErrMentorNotFound.
func (r *Repo) GetDetail(ctx context.Context, id int64) (mentor.Detail, error) {
	fields, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return mentor.Detail{}, fmt.Errorf("get mentor %d: %w", id, err)
	}
	if len(fields) == 0 {
		return mentor.Detail{}, domain.ErrMentorNotFound
	}
	return detailFromFields(id, fields), nil
}

// ListPage returns one page of the catalog. The cursor is an opaque offset;
// "" starts from the beginning. hasMore reports whether another page exists.
func (r *Repo) ListPage(
	ctx context.Context, cursor string, size int,
) ([]mentor.Detail, string, bool, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, "", false, fmt.Errorf("invalid cursor %q", cursor)
		}
		offset = n
	}

	sr, err := r.store.SearchList(ctx, indexName, "*", offset, size, listReturnFields)
	if err != nil {
		return nil, "", false, fmt.Errorf("list mentors: %w", err)
	}

	details := make([]mentor.Detail, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := idFromKey(entry.Key)
		if id == 0 {
			continue
		}
		details = append(details, detailFromFields(id, entry.Fields))
	}

	next := offset + len(sr.Entries)
	hasMore := next < sr.Total && len(sr.Entries) > 0
	nextCursor := ""
	if hasMore {
		nextCursor = strconv.Itoa(next)
	}
	return details, nextCursor, hasMore, nil
}

func (r *Repo) key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func parseHits(sr *db.SearchResult) []mentor.Hit {
	if sr == nil || sr.Total == 0 {
		return nil
	}
	hits := make([]mentor.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := idFromKey(entry.Key)
		if id == 0 {
			continue
		}
		hits = append(hits, mentor.Hit{ID: id, Similarity: entry.Score})
	}
	return hits
}
