package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-api/internal/models"
)

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type mockRoomStore struct {
	rooms      map[string]models.Room
	types      map[string]models.RoomType
	locked     []string
	updateErr  error
	pendingFor map[string]int
}

func newMockRoomStore(rooms ...models.Room) *mockRoomStore {
	store := &mockRoomStore{rooms: map[string]models.Room{}, types: map[string]models.RoomType{}}
	for _, room := range rooms {
		store.rooms[room.ID] = room
	}
	return store
}

func (m *mockRoomStore) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	m.locked = append(m.locked, id)
	return &room, nil
}

func (m *mockRoomStore) UpdateOccupancy(ctx context.Context, tx *sqlx.Tx, id string, occupancy int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	room := m.rooms[id]
	room.OccupancyCount = occupancy
	m.rooms[id] = room
	return nil
}

func (m *mockRoomStore) FindDetailByID(ctx context.Context, id string) (*models.RoomDetail, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	rt := m.types[room.RoomTypeID]
	detail := models.RoomDetail{Room: room, RoomTypeName: rt.Name, RoomTypeCapacity: rt.Capacity, PricePerMonth: rt.PricePerMonth}
	detail.Refresh()
	return &detail, nil
}

type mockStudentStore struct {
	students map[string]models.Student
	setErr   error
}

func newMockStudentStore(students ...models.Student) *mockStudentStore {
	store := &mockStudentStore{students: map[string]models.Student{}}
	for _, student := range students {
		store.students[student.ID] = student
	}
	return store
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.StudentDetail{Student: student}, nil
}

func (m *mockStudentStore) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	for _, student := range m.students {
		if student.UserID != nil && *student.UserID == userID {
			found := student
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.Student, error) {
	student, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &student, nil
}

func (m *mockStudentStore) SetRoom(ctx context.Context, tx *sqlx.Tx, studentID string, roomID *string) error {
	if m.setErr != nil {
		return m.setErr
	}
	student := m.students[studentID]
	student.RoomID = roomID
	m.students[studentID] = student
	return nil
}

type mockAuditWriter struct {
	entries []models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, *log)
	return nil
}

var errStore = errors.New("store unavailable")

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, HostelID: "h1"}
}

func strPtr(v string) *string {
	return &v
}

func quadRoom(id, number string, occupancy int) models.Room {
	return models.Room{ID: id, HostelID: "h1", RoomNumber: number, RoomTypeID: "quad", Capacity: 4, OccupancyCount: occupancy}
}

func activeStudent(id string, roomID *string) models.Student {
	return models.Student{ID: id, HostelID: "h1", StudentNumber: "1001", FullName: "Rina", RoomID: roomID, Status: models.StudentStatusActive}
}
