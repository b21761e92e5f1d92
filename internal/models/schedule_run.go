package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleRunStatus tells whether every paper found a slot.
type ScheduleRunStatus string

const (
	ScheduleRunStatusComplete ScheduleRunStatus = "COMPLETE"
	ScheduleRunStatusPartial  ScheduleRunStatus = "PARTIAL"
)

// ScheduleRun is one persisted allocator run. Unscheduled, Notices and Report
// hold the JSON forms of the run diagnostics.
type ScheduleRun struct {
	ID                string            `db:"id" json:"id"`
	Label             string            `db:"label" json:"label"`
	Status            ScheduleRunStatus `db:"status" json:"status"`
	SlotCount         int               `db:"slot_count" json:"slot_count"`
	Capacity          int               `db:"capacity" json:"capacity"`
	ThresholdFloor    int               `db:"threshold_floor" json:"threshold_floor"`
	EnforceCapacity   bool              `db:"enforce_capacity" json:"enforce_capacity"`
	PaperCount        int               `db:"paper_count" json:"paper_count"`
	PlacedCount       int               `db:"placed_count" json:"placed_count"`
	ThresholdsVisited int               `db:"thresholds_visited" json:"thresholds_visited"`
	Unscheduled       types.JSONText    `db:"unscheduled" json:"unscheduled"`
	Notices           types.JSONText    `db:"notices" json:"notices"`
	Report            types.JSONText    `db:"report" json:"report"`
	CreatedBy         string            `db:"created_by" json:"created_by"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
}

// SchedulePlacement is a paper placed in a slot of a run. Sequence is the
// wall-clock order of the placement, Position its index inside the slot.
type SchedulePlacement struct {
	ID        string    `db:"id" json:"id"`
	RunID     string    `db:"run_id" json:"run_id"`
	Sequence  int       `db:"sequence" json:"sequence"`
	Slot      int       `db:"slot" json:"slot"`
	Position  int       `db:"position" json:"position"`
	PaperID   int       `db:"paper_id" json:"paper_id"`
	PaperHash string    `db:"paper_hash" json:"paper_hash"`
	Title     string    `db:"title" json:"title"`
	Score     int       `db:"score" json:"score"`
	Threshold int       `db:"threshold" json:"threshold"`
	Phase     int       `db:"phase" json:"phase"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ScheduleRunFilter narrows run listings.
type ScheduleRunFilter struct {
	Status   *ScheduleRunStatus
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
