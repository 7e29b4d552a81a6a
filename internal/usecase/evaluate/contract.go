package evaluate

import (
	"context"

	"github.com/mentorlink/mentordex/internal/domain"
	"github.com/mentorlink/mentordex/internal/domain/mentor"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex runs nearest-neighbor searches over the mentor embeddings.
type VectorIndex interface {
	SearchSimilar(ctx context.Context, vector []float32, topN int, excludeID int64) ([]mentor.Hit, error)
}

// ProfileStore reads mentor detail records page by page for sampling.
type ProfileStore interface {
	ListPage(ctx context.Context, cursor string, size int) ([]mentor.Detail, string, bool, error)
}
