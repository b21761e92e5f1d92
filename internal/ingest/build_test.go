package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleTables() Tables {
	return Tables{
		Availability: []AvailabilityRow{
			{Email: "alice@example.org", Cells: []string{"", "0"}},
			{Email: "bob@example.org", Cells: []string{"(OK)", ""}},
			{Email: "ALICE@example.org", Cells: []string{"0", "0"}},
		},
		Assignments: []AssignmentRow{
			{PaperID: 20, Email: "bob@example.org"},
			{PaperID: 10, Email: "Alice@example.org"},
			{PaperID: 10, Email: "bob@example.org"},
			{PaperID: 10, Email: "erin@example.org"},
			{PaperID: 30, Email: "erin@example.org"},
			{PaperID: 40, Email: "alice@example.org", Action: "clearreview"},
			{PaperID: 50, Email: "alice@example.org"},
		},
		Conflicts: []ConflictRow{
			{PaperID: 10, Email: "carol@example.org"},
		},
		Papers: []PaperRow{
			{ID: 10, Title: "Ten"},
			{ID: 20, Title: "Twenty"},
			{ID: 30, Title: "Thirty"},
			{ID: 60, Title: "Sixty"},
		},
	}
}

func TestBuildNormalisesTables(t *testing.T) {
	in, err := Build(sampleTables(), Options{SlotCount: 2})
	require.NoError(t, err)

	require.Len(t, in.Papers, 2)
	ten, twenty := in.Papers[0], in.Papers[1]
	assert.Equal(t, 10, ten.ID)
	assert.Equal(t, "Ten", ten.Title)
	assert.Equal(t, []string{"alice@example.org", "bob@example.org"}, ten.AssignedReviewers)
	assert.Equal(t, []string{"carol@example.org"}, ten.ConflictedReviewers)
	assert.Equal(t, []int{-1, -2}, ten.Scores())
	assert.Equal(t, 20, twenty.ID)
	assert.Empty(t, twenty.ConflictedReviewers)

	r := in.Report
	assert.Equal(t, 2, r.Reviewers)
	assert.Equal(t, 2, r.Papers)
	assert.Equal(t, []string{"alice@example.org"}, r.DuplicateReviewers)
	assert.Equal(t, 1, r.ClearedAssignments)
	assert.Equal(t, 2, r.DroppedAssignments)
	assert.Equal(t, []string{"erin@example.org"}, r.UnknownReviewers)
	assert.Equal(t, []int{30, 60}, r.PapersWithoutReviewers)
	assert.Equal(t, []int{50}, r.PapersWithoutMetadata)
}

func TestBuildWithoutMetadataKeepsAllAssignedPapers(t *testing.T) {
	tables := sampleTables()
	tables.Papers = nil

	in, err := Build(tables, Options{SlotCount: 2})
	require.NoError(t, err)

	ids := make([]int, 0, len(in.Papers))
	for _, p := range in.Papers {
		ids = append(ids, p.ID)
		assert.Empty(t, p.Title)
	}
	assert.Equal(t, []int{10, 20, 50}, ids)
	assert.Equal(t, []int{30}, in.Report.PapersWithoutReviewers)
	assert.Empty(t, in.Report.PapersWithoutMetadata)
}

func TestBuildRejectsShortAvailabilityRows(t *testing.T) {
	_, err := Build(Tables{Availability: []AvailabilityRow{{Email: "a@example.org", Cells: []string{""}}}}, Options{SlotCount: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "availability line 2")
}

func TestBuildLogsDroppedReferences(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	_, err := Build(sampleTables(), Options{SlotCount: 2, Logger: zap.New(core)})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("dropped assignments of reviewers missing from availability").Len())
	assert.Equal(t, 1, logs.FilterMessage("papers missing from metadata").Len())
}
