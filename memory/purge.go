package memory

import (
	"context"
	"time"
)

// purgeSampleCap bounds the audit sample of detected pairs.
const purgeSampleCap = 10

// DuplicateChecker judges whether candidate content duplicates one of the
// existing records. Implemented by the similarity checker; the sweep treats
// any checker failure as "not a duplicate".
type DuplicateChecker interface {
	CheckDuplicate(ctx context.Context, candidate string, existing []*Record) (isDup bool, matchID string, similarity int)
}

// PurgePair is one detected duplicate pair, for audit logging.
type PurgePair struct {
	KeptID     string `json:"keptId"`
	DeletedID  string `json:"deletedId"`
	Similarity int    `json:"similarity"`
}

// PurgeResult summarizes a duplicate sweep.
type PurgeResult struct {
	Scanned    int         `json:"scanned"`
	Compared   int         `json:"compared"`
	Duplicates int         `json:"duplicates"`
	Deleted    int         `json:"deleted"`
	Pairs      []PurgePair `json:"pairs"` // capped sample, first 10
}

// PurgeDuplicates runs a pairwise similarity sweep across all of the
// owner's memories. For each detected duplicate pair the higher-importance
// record is retained (tie broken toward the more recent CreatedAt) and the
// other deleted. Deleted records are never re-compared. Quadratic in the
// record count, which is acceptable at the per-user sizes this system sees.
func (s *Store) PurgeDuplicates(ctx context.Context, owner string, checker DuplicateChecker) (*PurgeResult, error) {
	start := time.Now()

	recs, err := s.ListRecent(ctx, owner, 0)
	if err != nil {
		return nil, err
	}

	result := &PurgeResult{Scanned: len(recs)}
	deleted := make(map[string]bool)

	for i := 0; i < len(recs); i++ {
		if deleted[recs[i].ID] {
			continue
		}
		for j := i + 1; j < len(recs); j++ {
			if deleted[recs[i].ID] {
				break
			}
			if deleted[recs[j].ID] {
				continue
			}

			result.Compared++
			isDup, _, similarity := checker.CheckDuplicate(ctx, recs[i].Content, []*Record{recs[j]})
			if !isDup {
				continue
			}
			result.Duplicates++

			keep, drop := pickSurvivor(recs[i], recs[j])
			if err := s.backend.Delete(ctx, owner, drop.ID); err != nil {
				// A failed delete leaves both records in place; the next
				// sweep will see the pair again.
				continue
			}
			deleted[drop.ID] = true
			result.Deleted++
			if len(result.Pairs) < purgeSampleCap {
				result.Pairs = append(result.Pairs, PurgePair{
					KeptID:     keep.ID,
					DeletedID:  drop.ID,
					Similarity: similarity,
				})
			}
		}
	}

	s.log.WithUser(owner).PurgeComplete(result.Compared, result.Deleted, time.Since(start))
	return result, nil
}

// pickSurvivor retains the higher-importance record of a duplicate pair,
// breaking ties toward the more recent creation time.
func pickSurvivor(a, b *Record) (keep, drop *Record) {
	if a.Importance != b.Importance {
		if a.Importance > b.Importance {
			return a, b
		}
		return b, a
	}
	if a.CreatedAt.After(b.CreatedAt) {
		return a, b
	}
	return b, a
}
