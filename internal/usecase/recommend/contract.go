package recommend

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
// excludeID (when > 0) is removed before the KNN step.
type VectorIndex interface {
	SearchSimilar(ctx context.Context, vector []float32, topN int, excludeID int64) ([]mentor.Hit, error)
}

// ProfileStore reads mentor detail records, point-wise and paged.
type ProfileStore interface {
	GetDetail(ctx context.Context, id int64) (mentor.Detail, error)
	ListPage(ctx context.Context, cursor string, size int) ([]mentor.Detail, string, bool, error)
}

// GroundTruthVerifier runs a self-recovery probe for a single mentor,
// reporting whether it reappears in its own neighborhood and at which rank.
type GroundTruthVerifier interface {
	Verify(ctx context.Context, d mentor.Detail) (mentor.GroundTruthRecord, error)
}
