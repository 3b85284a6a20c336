package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-api/internal/models"
)

var roomDetailRowColumns = []string{"id", "hostel_id", "room_number", "room_type_id", "floor", "capacity", "occupancy_count", "under_maintenance", "created_at", "updated_at", "room_type_name", "room_type_capacity", "price_per_month"}

func TestRoomRepositoryListDerivesStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(roomDetailRowColumns).
		AddRow("r1", "h1", "101", "t1", 1, 4, 0, false, now, now, "Quad", 4, 5000.0).
		AddRow("r2", "h1", "102", "t1", 1, 4, 3, false, now, now, "Quad", 4, 5000.0).
		AddRow("r3", "h1", "103", "t1", nil, 4, 4, false, now, now, "Quad", 4, 5000.0).
		AddRow("r4", "h1", "104", "t1", nil, 4, 1, true, now, now, "Quad", 4, 5000.0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms r JOIN room_types rt ON rt.id = r.room_type_id WHERE 1=1 AND r.hostel_id = $1 ORDER BY r.room_number ASC LIMIT 20 OFFSET 0")).
		WithArgs("h1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms r JOIN room_types rt ON rt.id = r.room_type_id WHERE 1=1 AND r.hostel_id = $1")).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	rooms, total, err := repo.List(context.Background(), models.RoomFilter{HostelID: "h1"})
	require.NoError(t, err)
	require.Len(t, rooms, 4)
	assert.Equal(t, 4, total)
	assert.Equal(t, models.RoomStatusAvailable, rooms[0].Status)
	assert.Equal(t, 4, rooms[0].CapacityRemaining)
	assert.Equal(t, models.RoomStatusPartiallyOccupied, rooms[1].Status)
	assert.Equal(t, 1, rooms[1].CapacityRemaining)
	assert.Equal(t, models.RoomStatusOccupied, rooms[2].Status)
	assert.Equal(t, 0, rooms[2].CapacityRemaining)
	assert.Equal(t, models.RoomStatusMaintenance, rooms[3].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryListStatusFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND r.under_maintenance = FALSE AND r.occupancy_count > 0 AND r.occupancy_count < r.capacity ORDER BY")).
		WillReturnRows(sqlmock.NewRows(roomDetailRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	rooms, total, err := repo.List(context.Background(), models.RoomFilter{Status: models.RoomStatusPartiallyOccupied})
	require.NoError(t, err)
	assert.Empty(t, rooms)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryLockAndUpdateOccupancy(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE id = $1 FOR UPDATE")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "hostel_id", "room_number", "room_type_id", "floor", "capacity", "occupancy_count", "under_maintenance", "created_at", "updated_at"}).
			AddRow("r1", "h1", "101", "t1", nil, 4, 2, false, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET occupancy_count = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("r1", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	room, err := repo.LockByID(context.Background(), tx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, room.OccupancyCount)
	require.NoError(t, repo.UpdateOccupancy(context.Background(), tx, "r1", room.OccupancyCount+1))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryFindDetailNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindDetailByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryCreateStartsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rooms").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	room := &models.Room{HostelID: "h1", RoomNumber: "201", RoomTypeID: "t1", Capacity: 2, OccupancyCount: 5}
	require.NoError(t, repo.CreateTx(context.Background(), tx, room))
	require.NoError(t, tx.Commit())
	assert.NotEmpty(t, room.ID)
	assert.Zero(t, room.OccupancyCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryMaintenanceAndTypeUsageInTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET under_maintenance = $2")).
		WithArgs("r1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM rooms WHERE room_type_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.SetMaintenanceTx(context.Background(), tx, "r1", true))
	count, err := repo.CountByTypeTx(context.Background(), tx, "t1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
