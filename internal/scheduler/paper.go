package scheduler

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
)

// Paper is an immutable paper record with its per-slot deficit scores.
type Paper struct {
	ID                  int
	Title               string
	Hash                string
	AssignedReviewers   []string
	ConflictedReviewers []string

	scores []int
}

// NewPaper normalises the reviewer sets and computes the score vector against matrix.
// Assigned reviewers missing from the matrix are dropped; conflicts are kept as given.
func NewPaper(id int, title string, assigned, conflicted []string, matrix *AvailabilityMatrix) *Paper {
	valid := make([]string, 0, len(assigned))
	for _, reviewer := range assigned {
		if matrix.Has(reviewer) {
			valid = append(valid, reviewer)
		}
	}

	p := &Paper{
		ID:                  id,
		Title:               title,
		Hash:                PaperHash(id, title),
		AssignedReviewers:   normalizeSet(valid),
		ConflictedReviewers: normalizeSet(conflicted),
	}
	p.scores = ComputeScores(p.AssignedReviewers, matrix)
	return p
}

// ComputeScores sums status weights of reviewers for every slot. Reviewers
// unknown to the matrix contribute nothing.
func ComputeScores(reviewers []string, matrix *AvailabilityMatrix) []int {
	scores := make([]int, matrix.SlotCount())
	for i := range scores {
		slot := i + 1
		for _, reviewer := range reviewers {
			if status, ok := matrix.StatusOf(reviewer, slot); ok {
				scores[i] += status.Weight()
			}
		}
	}
	return scores
}

// PaperHash is the short identifier used on public schedules in place of titles.
func PaperHash(id int, title string) string {
	sum := sha256.Sum256([]byte(strconv.Itoa(id) + "@" + title))
	return hex.EncodeToString(sum[:])[:6]
}

// Score returns the deficit score at slot (1-based).
func (p *Paper) Score(slot int) int {
	if slot < 1 || slot > len(p.scores) {
		return 0
	}
	return p.scores[slot-1]
}

// Scores returns a copy of the score vector, index 0 being slot 1.
func (p *Paper) Scores() []int {
	out := make([]int, len(p.scores))
	copy(out, p.scores)
	return out
}

// MinScore is the lowest score the paper can reach, -2 per assigned reviewer.
func (p *Paper) MinScore() int {
	return -2 * len(p.AssignedReviewers)
}

// remainingMatches counts slots in [from, last] whose score equals threshold.
func (p *Paper) remainingMatches(from, threshold int) int {
	count := 0
	for slot := from; slot <= len(p.scores); slot++ {
		if p.scores[slot-1] == threshold {
			count++
		}
	}
	return count
}

func normalizeSet(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		norm := NormalizeReviewer(key)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	sort.Strings(out)
	return out
}

// overlap counts keys present in both sorted sets.
func overlap(a, b []string) int {
	i, j, n := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}
