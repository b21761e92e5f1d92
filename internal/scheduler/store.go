package scheduler

import (
	"sort"
	"strconv"
)

// Placement records one paper assigned to one slot.
type Placement struct {
	Slot      int `json:"slot"`
	PaperID   int `json:"paperId"`
	Score     int `json:"score"`
	Threshold int `json:"threshold"`
	Phase     int `json:"phase"`
}

// ScheduleStore accumulates placements per slot in append order.
type ScheduleStore struct {
	slots map[int][]Placement
	count int
}

// NewScheduleStore returns an empty store.
func NewScheduleStore() *ScheduleStore {
	return &ScheduleStore{slots: make(map[int][]Placement)}
}

// Place appends paperID to slot.
func (s *ScheduleStore) Place(slot, paperID, score int) {
	s.append(Placement{Slot: slot, PaperID: paperID, Score: score})
}

func (s *ScheduleStore) append(p Placement) {
	s.slots[p.Slot] = append(s.slots[p.Slot], p)
	s.count++
}

// Slot returns a copy of the placements of slot.
func (s *ScheduleStore) Slot(slot int) []Placement {
	out := make([]Placement, len(s.slots[slot]))
	copy(out, s.slots[slot])
	return out
}

// Len returns the total number of placements.
func (s *ScheduleStore) Len() int {
	return s.count
}

// Export builds the output table: one column per populated slot, ascending.
func (s *ScheduleStore) Export() Table {
	columns := make([]int, 0, len(s.slots))
	for slot, placements := range s.slots {
		if len(placements) > 0 {
			columns = append(columns, slot)
		}
	}
	sort.Ints(columns)

	cells := make([][]int, len(columns))
	for i, slot := range columns {
		ids := make([]int, len(s.slots[slot]))
		for j, p := range s.slots[slot] {
			ids[j] = p.PaperID
		}
		cells[i] = ids
	}
	return Table{Columns: columns, Cells: cells}
}

// Table is the ragged schedule: Cells[i] holds the paper IDs of Columns[i].
type Table struct {
	Columns []int   `json:"columns"`
	Cells   [][]int `json:"cells"`
}

// Header returns the column names as printed in the output CSV.
func (t Table) Header() []string {
	out := make([]string, len(t.Columns))
	for i, slot := range t.Columns {
		out[i] = strconv.Itoa(slot)
	}
	return out
}

// Rows pads the ragged columns into rectangular rows; short columns get empty cells.
func (t Table) Rows() [][]string {
	depth := 0
	for _, column := range t.Cells {
		if len(column) > depth {
			depth = len(column)
		}
	}

	rows := make([][]string, depth)
	for r := range rows {
		row := make([]string, len(t.Columns))
		for c, column := range t.Cells {
			if r < len(column) {
				row[c] = strconv.Itoa(column[r])
			}
		}
		rows[r] = row
	}
	return rows
}
