package scheduler

import (
	"fmt"

	"go.uber.org/zap"
)

const (
	// DefaultCapacity is the nominal papers per slot; C-1 are attempted per pass.
	DefaultCapacity = 6
	// DefaultThresholdFloor matches meetings with at most five or six reviewers per paper.
	DefaultThresholdFloor = -11

	phasesPerThreshold = 2
)

// Options tunes the allocator.
type Options struct {
	SlotCount      int
	Capacity       int
	ThresholdFloor int
	// DeriveFloor replaces ThresholdFloor with -2 x the largest reviewer set in the pool.
	DeriveFloor bool
	// EnforceCapacity caps every slot at Capacity-1 placements across all passes.
	// Without it each threshold/phase pass may add up to Capacity-1 more papers.
	EnforceCapacity bool
	Logger          *zap.Logger
}

// DefaultOptions returns the PC meeting defaults.
func DefaultOptions() Options {
	return Options{
		SlotCount:       DefaultSlotCount,
		Capacity:        DefaultCapacity,
		ThresholdFloor:  DefaultThresholdFloor,
		DeriveFloor:     true,
		EnforceCapacity: true,
	}
}

// Notice reports a slot that had no eligible paper at a threshold/phase.
type Notice struct {
	Slot      int `json:"slot"`
	Threshold int `json:"threshold"`
	Phase     int `json:"phase"`
}

// Result is the outcome of one allocator run.
type Result struct {
	Store *ScheduleStore
	// Placements in the order they were made.
	Placements        []Placement
	Unscheduled       []int
	Notices           []Notice
	ThresholdsVisited int
	Floor             int
}

// Table exports the store.
func (r *Result) Table() Table {
	return r.Store.Export()
}

// allocatorContext remembers the reviewer sets of the last placed paper.
// It survives slot, phase and threshold boundaries and only changes on placement.
type allocatorContext struct {
	hasPrevious bool
	assigned    []string
	conflicted  []string
}

func (c *allocatorContext) remember(p *Paper) {
	c.hasPrevious = true
	c.assigned = p.AssignedReviewers
	c.conflicted = p.ConflictedReviewers
}

// Allocator places papers into discussion slots with a greedy threshold sweep.
type Allocator struct {
	opts   Options
	logger *zap.Logger
}

// NewAllocator validates opts and returns an allocator.
func NewAllocator(opts Options) (*Allocator, error) {
	if opts.SlotCount < 1 {
		return nil, fmt.Errorf("slot count must be positive, got %d", opts.SlotCount)
	}
	if opts.Capacity < 2 {
		return nil, fmt.Errorf("capacity must be at least 2, got %d", opts.Capacity)
	}
	if opts.ThresholdFloor > 0 {
		return nil, fmt.Errorf("threshold floor must not be positive, got %d", opts.ThresholdFloor)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{opts: opts, logger: logger}, nil
}

// Options returns the effective options.
func (a *Allocator) Options() Options {
	return a.opts
}

// Floor returns the lowest threshold the sweep visits for pool.
func (a *Allocator) Floor(pool *PaperPool) int {
	if a.opts.DeriveFloor {
		return pool.MinScore()
	}
	return a.opts.ThresholdFloor
}

// Run consumes pool and returns the schedule. Papers still pooled after the
// sweep are reported in Result.Unscheduled.
func (a *Allocator) Run(pool *PaperPool) *Result {
	res := &Result{Store: NewScheduleStore(), Floor: a.Floor(pool)}
	ctx := &allocatorContext{}

	a.sweep(pool, ctx, res)

	res.Unscheduled = pool.Remaining()
	if len(res.Unscheduled) > 0 {
		a.logger.Warn("papers left unscheduled",
			zap.Int("count", len(res.Unscheduled)),
			zap.Ints("paper_ids", res.Unscheduled),
		)
	}
	a.logger.Info("allocation finished",
		zap.Int("placed", res.Store.Len()),
		zap.Int("unscheduled", len(res.Unscheduled)),
		zap.Int("thresholds_visited", res.ThresholdsVisited),
		zap.Int("notices", len(res.Notices)),
	)
	return res
}

func (a *Allocator) sweep(pool *PaperPool, ctx *allocatorContext, res *Result) {
	if pool.IsEmpty() {
		return
	}
	attempts := a.opts.Capacity - 1

	for threshold := 0; threshold >= res.Floor; threshold-- {
		res.ThresholdsVisited++
		for phase := 1; phase <= phasesPerThreshold; phase++ {
			for slot := 1; slot <= a.opts.SlotCount; slot++ {
				for attempt := 0; attempt < attempts; attempt++ {
					if a.opts.EnforceCapacity && len(res.Store.slots[slot]) >= attempts {
						break
					}

					candidates := pool.CandidatesAt(slot, threshold)
					if len(candidates) == 0 {
						notice := Notice{Slot: slot, Threshold: threshold, Phase: phase}
						res.Notices = append(res.Notices, notice)
						a.logger.Warn("no eligible paper for slot",
							zap.Int("slot", slot),
							zap.Int("threshold", threshold),
							zap.Int("phase", phase),
						)
						break
					}

					paper := choose(ctx, candidates, slot, threshold)
					placement := Placement{
						Slot:      slot,
						PaperID:   paper.ID,
						Score:     paper.Score(slot),
						Threshold: threshold,
						Phase:     phase,
					}
					res.Store.append(placement)
					res.Placements = append(res.Placements, placement)
					ctx.remember(paper)
					pool.Remove(paper.ID)

					if pool.IsEmpty() {
						return
					}
				}
			}
		}
	}
}

// choose picks the candidate to place. The very first placement of a run takes
// the first candidate; afterwards candidates are ranked by fewest remaining
// matching slots, then most shared reviewers, then most shared conflicts.
// Remaining ties keep pool order.
func choose(ctx *allocatorContext, candidates []*Paper, slot, threshold int) *Paper {
	if !ctx.hasPrevious {
		return candidates[0]
	}

	best := candidates[0]
	bestKey := rank(ctx, best, slot, threshold)
	for _, candidate := range candidates[1:] {
		key := rank(ctx, candidate, slot, threshold)
		if key.before(bestKey) {
			best, bestKey = candidate, key
		}
	}
	return best
}

type rankKey struct {
	remaining        int
	sharedReviewers  int
	sharedConflicted int
}

func rank(ctx *allocatorContext, p *Paper, slot, threshold int) rankKey {
	return rankKey{
		remaining:        p.remainingMatches(slot, threshold),
		sharedReviewers:  overlap(p.AssignedReviewers, ctx.assigned),
		sharedConflicted: overlap(p.ConflictedReviewers, ctx.conflicted),
	}
}

// before reports whether k strictly outranks other.
func (k rankKey) before(other rankKey) bool {
	if k.remaining != other.remaining {
		return k.remaining < other.remaining
	}
	if k.sharedReviewers != other.sharedReviewers {
		return k.sharedReviewers > other.sharedReviewers
	}
	return k.sharedConflicted > other.sharedConflicted
}
