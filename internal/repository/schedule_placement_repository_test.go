package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pc-discussion-scheduler/internal/models"
)

func TestSchedulePlacementRepositoryInsertBatch(t *testing.T) {
	db, mock, cleanup := newScheduleRunRepoMock(t)
	defer cleanup()
	repo := NewSchedulePlacementRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_placements")).
		WithArgs(sqlmock.AnyArg(), "run-1", 0, 1, 0, 7, "ab12cd", "Paper 7", 0, 0, 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_placements")).
		WithArgs(sqlmock.AnyArg(), "run-1", 1, 1, 1, 9, "ef34ab", "Paper 9", -1, -1, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	placements := []models.SchedulePlacement{
		{RunID: "run-1", Sequence: 0, Slot: 1, Position: 0, PaperID: 7, PaperHash: "ab12cd", Title: "Paper 7", Score: 0, Threshold: 0, Phase: 1},
		{RunID: "run-1", Sequence: 1, Slot: 1, Position: 1, PaperID: 9, PaperHash: "ef34ab", Title: "Paper 9", Score: -1, Threshold: -1, Phase: 2},
	}
	require.NoError(t, repo.InsertBatch(context.Background(), nil, placements))
	assert.NotEmpty(t, placements[0].ID)
	assert.NotEqual(t, placements[0].ID, placements[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulePlacementRepositoryInsertBatchStopsOnError(t *testing.T) {
	db, mock, cleanup := newScheduleRunRepoMock(t)
	defer cleanup()
	repo := NewSchedulePlacementRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_placements")).
		WillReturnError(errors.New("duplicate key"))

	err := repo.InsertBatch(context.Background(), nil, []models.SchedulePlacement{{RunID: "run-1", PaperID: 1}, {RunID: "run-1", PaperID: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert schedule placement")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulePlacementRepositoryListByRun(t *testing.T) {
	db, mock, cleanup := newScheduleRunRepoMock(t)
	defer cleanup()
	repo := NewSchedulePlacementRepository(db)

	rows := sqlmock.NewRows([]string{"id", "run_id", "sequence", "slot", "position", "paper_id", "paper_hash", "title", "score", "threshold", "phase", "created_at"}).
		AddRow("p-1", "run-1", 0, 2, 0, 4, "aaaaaa", "", 0, 0, 1, time.Now()).
		AddRow("p-2", "run-1", 1, 2, 1, 5, "bbbbbb", "", 0, 0, 1, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_placements WHERE run_id = $1 ORDER BY sequence ASC")).
		WithArgs("run-1").
		WillReturnRows(rows)

	placements, err := repo.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, placements, 2)
	assert.Equal(t, 5, placements[1].PaperID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchedulePlacementRepositoryInsertBatchEmpty(t *testing.T) {
	db, mock, cleanup := newScheduleRunRepoMock(t)
	defer cleanup()
	repo := NewSchedulePlacementRepository(db)

	require.NoError(t, repo.InsertBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
