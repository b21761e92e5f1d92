package scheduler

import "sort"

// PaperPool is the working set of unscheduled papers, kept in ascending ID order.
// It is owned by a single allocator run and is not safe for concurrent use.
type PaperPool struct {
	papers []*Paper
	index  map[int]int
}

// NewPaperPool builds a pool. Papers with duplicate IDs keep the first occurrence.
func NewPaperPool(papers []*Paper) *PaperPool {
	pool := &PaperPool{index: make(map[int]int, len(papers))}
	seen := make(map[int]struct{}, len(papers))
	for _, p := range papers {
		if p == nil {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		pool.papers = append(pool.papers, p)
	}
	sort.SliceStable(pool.papers, func(i, j int) bool { return pool.papers[i].ID < pool.papers[j].ID })
	pool.reindex()
	return pool
}

// CandidatesAt returns unscheduled papers whose score at slot is exactly threshold, in pool order.
func (p *PaperPool) CandidatesAt(slot, threshold int) []*Paper {
	var out []*Paper
	for _, paper := range p.papers {
		if slot > len(paper.scores) {
			continue
		}
		if paper.Score(slot) == threshold {
			out = append(out, paper)
		}
	}
	return out
}

// Remove drops the paper from the pool. Unknown IDs are ignored.
func (p *PaperPool) Remove(paperID int) {
	pos, ok := p.index[paperID]
	if !ok {
		return
	}
	p.papers = append(p.papers[:pos], p.papers[pos+1:]...)
	p.reindex()
}

// IsEmpty reports whether every paper has been placed.
func (p *PaperPool) IsEmpty() bool {
	return len(p.papers) == 0
}

// Len returns the number of unscheduled papers.
func (p *PaperPool) Len() int {
	return len(p.papers)
}

// Remaining lists unscheduled paper IDs in pool order.
func (p *PaperPool) Remaining() []int {
	ids := make([]int, len(p.papers))
	for i, paper := range p.papers {
		ids[i] = paper.ID
	}
	return ids
}

// MinScore is the lowest score any pooled paper can reach.
func (p *PaperPool) MinScore() int {
	lowest := 0
	for _, paper := range p.papers {
		if s := paper.MinScore(); s < lowest {
			lowest = s
		}
	}
	return lowest
}

func (p *PaperPool) reindex() {
	for k := range p.index {
		delete(p.index, k)
	}
	for i, paper := range p.papers {
		p.index[paper.ID] = i
	}
}
