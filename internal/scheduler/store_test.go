package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreExportIsRaggedAndSkipsEmptySlots(t *testing.T) {
	s := NewScheduleStore()
	s.Place(3, 30, -1)
	s.Place(1, 10, 0)
	s.Place(1, 11, 0)
	s.Place(3, 31, -1)
	s.Place(1, 12, 0)

	table := s.Export()
	assert.Equal(t, []int{1, 3}, table.Columns)
	assert.Equal(t, [][]int{{10, 11, 12}, {30, 31}}, table.Cells)
	assert.Equal(t, []string{"1", "3"}, table.Header())
	assert.Equal(t, [][]string{{"10", "30"}, {"11", "31"}, {"12", ""}}, table.Rows())
	assert.Equal(t, 5, s.Len())
	assert.Len(t, s.Slot(1), 3)
	assert.Empty(t, s.Slot(2))
}

func TestEmptyStoreExport(t *testing.T) {
	table := NewScheduleStore().Export()
	assert.Empty(t, table.Columns)
	assert.Empty(t, table.Rows())
}
