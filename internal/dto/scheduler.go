package dto

import (
	"time"

	"github.com/noah-isme/pc-discussion-scheduler/internal/ingest"
	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
	"github.com/noah-isme/pc-discussion-scheduler/internal/scheduler"
)

// AvailabilityRowRequest is one reviewer row of the availability poll; Slots[i] is slot i+1.
type AvailabilityRowRequest struct {
	Email string   `json:"email" validate:"required"`
	Slots []string `json:"slots" validate:"required,min=1"`
}

// AssignmentRowRequest assigns a reviewer to a paper.
type AssignmentRowRequest struct {
	PaperID int    `json:"paperId" validate:"gte=0"`
	Email   string `json:"email" validate:"required"`
	Action  string `json:"action,omitempty"`
}

// ConflictRowRequest declares a reviewer conflict with a paper.
type ConflictRowRequest struct {
	PaperID int    `json:"paperId" validate:"gte=0"`
	Email   string `json:"email" validate:"required"`
}

// PaperRowRequest carries paper metadata.
type PaperRowRequest struct {
	ID    int    `json:"id" validate:"gte=0"`
	Title string `json:"title"`
}

// GenerateScheduleRequest submits the allocator input tables.
type GenerateScheduleRequest struct {
	Label        string                   `json:"label" validate:"omitempty,max=120"`
	Availability []AvailabilityRowRequest `json:"availability" validate:"required,min=1,dive"`
	Assignments  []AssignmentRowRequest   `json:"assignments" validate:"required,min=1,dive"`
	Conflicts    []ConflictRowRequest     `json:"conflicts" validate:"omitempty,dive"`
	Papers       []PaperRowRequest        `json:"papers" validate:"omitempty,dive"`
	Capacity     *int                     `json:"capacity,omitempty" validate:"omitempty,min=2,max=50"`
}

// Tables converts the payload to ingest tables. Papers stays nil when no metadata was sent.
func (r GenerateScheduleRequest) Tables() ingest.Tables {
	tables := ingest.Tables{
		Availability: make([]ingest.AvailabilityRow, 0, len(r.Availability)),
		Assignments:  make([]ingest.AssignmentRow, 0, len(r.Assignments)),
		Conflicts:    make([]ingest.ConflictRow, 0, len(r.Conflicts)),
	}
	for _, row := range r.Availability {
		tables.Availability = append(tables.Availability, ingest.AvailabilityRow{Email: row.Email, Cells: row.Slots})
	}
	for _, row := range r.Assignments {
		tables.Assignments = append(tables.Assignments, ingest.AssignmentRow{PaperID: row.PaperID, Email: row.Email, Action: row.Action})
	}
	for _, row := range r.Conflicts {
		tables.Conflicts = append(tables.Conflicts, ingest.ConflictRow{PaperID: row.PaperID, Email: row.Email})
	}
	if len(r.Papers) > 0 {
		tables.Papers = make([]ingest.PaperRow, 0, len(r.Papers))
		for _, row := range r.Papers {
			tables.Papers = append(tables.Papers, ingest.PaperRow{ID: row.ID, Title: row.Title})
		}
	}
	return tables
}

// PlacementResponse is a placed paper.
type PlacementResponse struct {
	Sequence  int    `json:"sequence"`
	Slot      int    `json:"slot"`
	Position  int    `json:"position"`
	PaperID   int    `json:"paperId"`
	Hash      string `json:"hash"`
	Title     string `json:"title,omitempty"`
	Score     int    `json:"score"`
	Threshold int    `json:"threshold"`
	Phase     int    `json:"phase"`
}

// UnscheduledPaper is a paper the sweep could not place.
type UnscheduledPaper struct {
	PaperID int    `json:"paperId"`
	Hash    string `json:"hash"`
	Title   string `json:"title,omitempty"`
}

// ScheduleSettings echoes the allocator settings used for a run.
type ScheduleSettings struct {
	SlotCount       int  `json:"slotCount"`
	Capacity        int  `json:"capacity"`
	ThresholdFloor  int  `json:"thresholdFloor"`
	EnforceCapacity bool `json:"enforceCapacity"`
}

// ScheduleRunResponse is the full result of a run.
type ScheduleRunResponse struct {
	ID                string                   `json:"id"`
	Label             string                   `json:"label,omitempty"`
	Status            models.ScheduleRunStatus `json:"status"`
	Settings          ScheduleSettings         `json:"settings"`
	Table             scheduler.Table          `json:"table"`
	Placements        []PlacementResponse      `json:"placements"`
	Unscheduled       []UnscheduledPaper       `json:"unscheduled"`
	Notices           []scheduler.Notice       `json:"notices"`
	ThresholdsVisited int                      `json:"thresholdsVisited"`
	Report            ingest.Report            `json:"report"`
	CreatedBy         string                   `json:"createdBy,omitempty"`
	CreatedAt         time.Time                `json:"createdAt"`
}

// ScheduleRunSummary is the list view of a run.
type ScheduleRunSummary struct {
	ID          string                   `json:"id"`
	Label       string                   `json:"label,omitempty"`
	Status      models.ScheduleRunStatus `json:"status"`
	PaperCount  int                      `json:"paperCount"`
	PlacedCount int                      `json:"placedCount"`
	CreatedAt   time.Time                `json:"createdAt"`
}
