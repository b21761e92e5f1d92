package ingest

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/pc-discussion-scheduler/internal/scheduler"
)

const actionClearReview = "clearreview"

// Options controls how tables are normalised.
type Options struct {
	SlotCount int
	Logger    *zap.Logger
}

// Report counts the dangling references dropped while normalising the tables.
type Report struct {
	Reviewers              int      `json:"reviewers"`
	Papers                 int      `json:"papers"`
	DuplicateReviewers     []string `json:"duplicateReviewers,omitempty"`
	ClearedAssignments     int      `json:"clearedAssignments"`
	DroppedAssignments     int      `json:"droppedAssignments"`
	UnknownReviewers       []string `json:"unknownReviewers,omitempty"`
	PapersWithoutReviewers []int    `json:"papersWithoutReviewers,omitempty"`
	PapersWithoutMetadata  []int    `json:"papersWithoutMetadata,omitempty"`
}

// Input is the allocator-ready form of the tables.
type Input struct {
	Matrix *scheduler.AvailabilityMatrix
	Papers []*scheduler.Paper
	Report Report
}

// Build normalises tables into an availability matrix and papers in ascending ID order.
// Only papers with at least one reviewer present in the matrix are kept; when a
// metadata table is supplied, papers missing from it are dropped as well.
func Build(tables Tables, opts Options) (*Input, error) {
	if opts.SlotCount <= 0 {
		opts.SlotCount = scheduler.DefaultSlotCount
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	report := Report{}
	matrix, err := buildMatrix(tables.Availability, opts.SlotCount, &report)
	if err != nil {
		return nil, err
	}

	assigned := make(map[int][]string)
	unknown := make(map[string]struct{})
	var order []int
	for _, row := range tables.Assignments {
		if strings.EqualFold(strings.TrimSpace(row.Action), actionClearReview) {
			report.ClearedAssignments++
			continue
		}
		if _, seen := assigned[row.PaperID]; !seen {
			assigned[row.PaperID] = nil
			order = append(order, row.PaperID)
		}
		if !matrix.Has(row.Email) {
			report.DroppedAssignments++
			if key := scheduler.NormalizeReviewer(row.Email); key != "" {
				unknown[key] = struct{}{}
			}
			continue
		}
		assigned[row.PaperID] = append(assigned[row.PaperID], row.Email)
	}
	report.UnknownReviewers = sortedKeys(unknown)

	conflicts := make(map[int][]string)
	for _, row := range tables.Conflicts {
		conflicts[row.PaperID] = append(conflicts[row.PaperID], row.Email)
	}

	var titles map[int]string
	if tables.Papers != nil {
		titles = make(map[int]string, len(tables.Papers))
		for _, row := range tables.Papers {
			if _, dup := titles[row.ID]; !dup {
				titles[row.ID] = row.Title
			}
		}
		for id := range titles {
			if _, ok := assigned[id]; !ok {
				report.PapersWithoutReviewers = append(report.PapersWithoutReviewers, id)
			}
		}
	}

	sort.Ints(order)
	papers := make([]*scheduler.Paper, 0, len(order))
	for _, id := range order {
		if len(assigned[id]) == 0 {
			report.PapersWithoutReviewers = append(report.PapersWithoutReviewers, id)
			continue
		}
		title := ""
		if titles != nil {
			t, ok := titles[id]
			if !ok {
				report.PapersWithoutMetadata = append(report.PapersWithoutMetadata, id)
				continue
			}
			title = t
		}
		papers = append(papers, scheduler.NewPaper(id, title, assigned[id], conflicts[id], matrix))
	}
	sort.Ints(report.PapersWithoutReviewers)
	report.Papers = len(papers)

	if report.DroppedAssignments > 0 {
		logger.Warn("dropped assignments of reviewers missing from availability",
			zap.Int("count", report.DroppedAssignments),
			zap.Strings("reviewers", report.UnknownReviewers),
		)
	}
	if len(report.PapersWithoutReviewers) > 0 {
		logger.Warn("papers without valid reviewers", zap.Ints("paper_ids", report.PapersWithoutReviewers))
	}
	if len(report.PapersWithoutMetadata) > 0 {
		logger.Warn("papers missing from metadata", zap.Ints("paper_ids", report.PapersWithoutMetadata))
	}
	if len(report.DuplicateReviewers) > 0 {
		logger.Warn("duplicate availability rows ignored", zap.Strings("reviewers", report.DuplicateReviewers))
	}

	return &Input{Matrix: matrix, Papers: papers, Report: report}, nil
}

func buildMatrix(rows []AvailabilityRow, slotCount int, report *Report) (*scheduler.AvailabilityMatrix, error) {
	matrix := scheduler.NewAvailabilityMatrix(slotCount)
	for i, row := range rows {
		if len(row.Cells) != slotCount {
			return nil, &RowError{Table: "availability", Line: i + 2, Err: fmt.Errorf("expected %d slots, got %d", slotCount, len(row.Cells))}
		}
		if matrix.Has(row.Email) {
			report.DuplicateReviewers = append(report.DuplicateReviewers, scheduler.NormalizeReviewer(row.Email))
			continue
		}
		statuses := make([]scheduler.Status, slotCount)
		for j, c := range row.Cells {
			statuses[j] = scheduler.ParseStatus(c)
		}
		if err := matrix.Add(row.Email, statuses); err != nil {
			return nil, &RowError{Table: "availability", Line: i + 2, Err: err}
		}
	}
	report.Reviewers = matrix.Len()
	return matrix, nil
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
