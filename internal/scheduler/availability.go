package scheduler

import (
	"fmt"
	"strings"
)

// DefaultSlotCount is the number of discussion windows in a PC meeting.
const DefaultSlotCount = 16

// Status is a reviewer's availability for one timeslot.
type Status int

const (
	Available Status = iota
	SoftAvailable
	Unavailable
)

// String renders the status the way availability polls print it.
func (s Status) String() string {
	switch s {
	case Available:
		return "AVAILABLE"
	case SoftAvailable:
		return "SOFT_AVAILABLE"
	default:
		return "UNAVAILABLE"
	}
}

// Weight is the status contribution to a paper's deficit score.
func (s Status) Weight() int {
	switch s {
	case Available:
		return 0
	case SoftAvailable:
		return -1
	default:
		return -2
	}
}

// ParseStatus decodes one availability poll cell. Blank cells and "OK" mean
// available, "(OK)" means available if need be, anything else is unavailable.
func ParseStatus(cell string) Status {
	switch strings.TrimSpace(cell) {
	case "", "OK":
		return Available
	case "(OK)":
		return SoftAvailable
	default:
		return Unavailable
	}
}

// NormalizeReviewer canonicalises a reviewer key (an email address).
func NormalizeReviewer(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// AvailabilityMatrix maps reviewers to their per-slot statuses. It is read-only once built.
type AvailabilityMatrix struct {
	slotCount int
	rows      map[string][]Status
	order     []string
}

// NewAvailabilityMatrix creates an empty matrix for slotCount timeslots.
func NewAvailabilityMatrix(slotCount int) *AvailabilityMatrix {
	if slotCount <= 0 {
		slotCount = DefaultSlotCount
	}
	return &AvailabilityMatrix{
		slotCount: slotCount,
		rows:      make(map[string][]Status),
	}
}

// Add registers a reviewer row. The row must hold exactly one status per slot;
// a reviewer listed twice keeps the first row.
func (m *AvailabilityMatrix) Add(reviewer string, statuses []Status) error {
	key := NormalizeReviewer(reviewer)
	if key == "" {
		return fmt.Errorf("reviewer key is empty")
	}
	if len(statuses) != m.slotCount {
		return fmt.Errorf("reviewer %s: expected %d statuses, got %d", key, m.slotCount, len(statuses))
	}
	if _, exists := m.rows[key]; exists {
		return nil
	}
	row := make([]Status, len(statuses))
	copy(row, statuses)
	m.rows[key] = row
	m.order = append(m.order, key)
	return nil
}

// StatusOf returns the status of reviewer at slot (1-based). The boolean is
// false when the reviewer is unknown or the slot is out of range.
func (m *AvailabilityMatrix) StatusOf(reviewer string, slot int) (Status, bool) {
	row, ok := m.rows[NormalizeReviewer(reviewer)]
	if !ok || slot < 1 || slot > m.slotCount {
		return Unavailable, false
	}
	return row[slot-1], true
}

// Has reports whether the reviewer is a valid voting reviewer.
func (m *AvailabilityMatrix) Has(reviewer string) bool {
	_, ok := m.rows[NormalizeReviewer(reviewer)]
	return ok
}

// SlotCount returns the number of timeslots per reviewer.
func (m *AvailabilityMatrix) SlotCount() int {
	return m.slotCount
}

// Reviewers lists reviewer keys in load order.
func (m *AvailabilityMatrix) Reviewers() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of reviewers.
func (m *AvailabilityMatrix) Len() int {
	return len(m.order)
}
