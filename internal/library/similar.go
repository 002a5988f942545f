package library

import (
	"context"
	"database/sql"
	"sort"

	"github.com/hpungsan/shutter/internal/db"
	"github.com/hpungsan/shutter/internal/errors"
	"github.com/hpungsan/shutter/internal/imaging"
	"github.com/hpungsan/shutter/internal/screenshot"
)

// DefaultMaxDistance is the Hamming distance under which two captures are
// considered near-duplicates.
const DefaultMaxDistance = 10

// SimilarInput contains parameters for the Similar operation.
type SimilarInput struct {
	ID          int64
	MaxDistance *int // default: DefaultMaxDistance
	Limit       int  // 0 means no limit
}

// Match is one similar screenshot.
type Match struct {
	Screenshot *screenshot.Screenshot `json:"screenshot"`
	Distance   int                    `json:"distance"`
}

// SimilarOutput contains the result of the Similar operation.
type SimilarOutput struct {
	ID      int64   `json:"id"`
	Matches []Match `json:"matches"`
}

// Similar finds other captures whose perceptual hash is within MaxDistance,
// closest first.
func Similar(ctx context.Context, database *sql.DB, input SimilarInput) (*SimilarOutput, error) {
	maxDistance := DefaultMaxDistance
	if input.MaxDistance != nil {
		if *input.MaxDistance < 0 || *input.MaxDistance > 64 {
			return nil, errors.NewInvalidRequest("max_distance must be between 0 and 64")
		}
		maxDistance = *input.MaxDistance
	}
	if input.Limit < 0 {
		return nil, errors.NewInvalidRequest("limit must not be negative")
	}

	s, err := db.GetScreenshot(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}
	if s.PHash == nil {
		return nil, errors.NewInvalidRequest("screenshot has no perceptual hash")
	}

	entries, err := db.ListScreenshotHashes(ctx, database)
	if err != nil {
		return nil, err
	}

	type hit struct {
		id       int64
		distance int
	}
	var hits []hit
	for _, e := range entries {
		if e.ID == s.ID {
			continue
		}
		d, err := imaging.HashDistance(*s.PHash, e.PHash)
		if err != nil {
			continue
		}
		if d <= maxDistance {
			hits = append(hits, hit{id: e.ID, distance: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].id > hits[j].id
	})
	if input.Limit > 0 && len(hits) > input.Limit {
		hits = hits[:input.Limit]
	}

	out := &SimilarOutput{ID: s.ID, Matches: []Match{}}
	for _, h := range hits {
		m, err := db.GetScreenshot(ctx, database, h.id)
		if err != nil {
			// Deleted between the two reads
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out.Matches = append(out.Matches, Match{Screenshot: m, Distance: h.distance})
	}
	return out, nil
}
