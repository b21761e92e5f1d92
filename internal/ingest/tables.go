package ingest

// AvailabilityRow is one reviewer row of the availability poll. Cells[i] is slot i+1.
type AvailabilityRow struct {
	Email string
	Cells []string
}

// AssignmentRow links a paper to a reviewer. Rows whose Action is "clearreview" are ignored.
type AssignmentRow struct {
	PaperID int
	Email   string
	Action  string
}

// ConflictRow declares a reviewer conflict with a paper.
type ConflictRow struct {
	PaperID int
	Email   string
}

// PaperRow carries paper metadata shown next to the schedule.
type PaperRow struct {
	ID    int
	Title string
}

// Tables bundles the four allocator inputs. A nil Papers slice means no
// metadata table was supplied and titles stay empty.
type Tables struct {
	Availability []AvailabilityRow
	Assignments  []AssignmentRow
	Conflicts    []ConflictRow
	Papers       []PaperRow
}
