package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type mockRoomRepo struct {
	*mockRoomStore
	numbers       map[string]string
	created       []models.Room
	deleted       []string
	lastFilter    models.RoomFilter
	maxByType     map[string]int
	countByType   map[string]int
	pendingByRoom map[string]int
	sharedTypes   []string
}

func newMockRoomRepo(rooms ...models.Room) *mockRoomRepo {
	store := newMockRoomStore(rooms...)
	store.types["quad"] = models.RoomType{ID: "quad", Name: "Quad", Capacity: 4, PricePerMonth: 5000}
	store.types["double"] = models.RoomType{ID: "double", Name: "Double", Capacity: 2, PricePerMonth: 7000}
	return &mockRoomRepo{
		mockRoomStore: store,
		numbers:       map[string]string{},
		maxByType:     map[string]int{},
		countByType:   map[string]int{},
		pendingByRoom: map[string]int{},
	}
}

func (m *mockRoomRepo) List(ctx context.Context, filter models.RoomFilter) ([]models.RoomDetail, int, error) {
	m.lastFilter = filter
	return nil, 0, nil
}

func (m *mockRoomRepo) ExistsByNumber(ctx context.Context, hostelID, roomNumber, excludeID string) (bool, error) {
	id, ok := m.numbers[hostelID+"/"+roomNumber]
	return ok && id != excludeID, nil
}

func (m *mockRoomRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, room *models.Room) error {
	room.ID = "room-new"
	room.OccupancyCount = 0
	m.created = append(m.created, *room)
	m.rooms[room.ID] = *room
	return nil
}

func (m *mockRoomRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, room *models.Room) error {
	m.rooms[room.ID] = *room
	return nil
}

func (m *mockRoomRepo) SetMaintenanceTx(ctx context.Context, tx *sqlx.Tx, id string, underMaintenance bool) error {
	room := m.rooms[id]
	room.UnderMaintenance = underMaintenance
	m.rooms[id] = room
	return nil
}

func (m *mockRoomRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	delete(m.rooms, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRoomRepo) FindByID(ctx context.Context, id string) (*models.RoomType, error) {
	rt, ok := m.types[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rt, nil
}

func (m *mockRoomRepo) FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.RoomType, error) {
	m.sharedTypes = append(m.sharedTypes, id)
	return m.FindByID(ctx, id)
}

func (m *mockRoomRepo) CountPendingForRoom(ctx context.Context, tx *sqlx.Tx, roomID string) (int, error) {
	return m.pendingByRoom[roomID], nil
}

func (m *mockRoomRepo) MaxCapacityForType(ctx context.Context, tx *sqlx.Tx, roomTypeID string) (int, error) {
	return m.maxByType[roomTypeID], nil
}

func (m *mockRoomRepo) CountByTypeTx(ctx context.Context, tx *sqlx.Tx, roomTypeID string) (int, error) {
	return m.countByType[roomTypeID], nil
}

func TestRoomServiceCreateDefaultsCapacity(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := newMockRoomRepo()
	svc := NewRoomService(tx, repo, repo, repo, nil, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	room, err := svc.Create(context.Background(), adminClaims(), dto.CreateRoomRequest{RoomNumber: "201", RoomTypeID: "quad"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, []string{"quad"}, repo.sharedTypes)
	assert.Equal(t, 4, room.Capacity)
	assert.Equal(t, 0, room.OccupancyCount)
	assert.Equal(t, models.RoomStatusAvailable, room.Status)
	assert.Equal(t, 4, room.CapacityRemaining)
	assert.Equal(t, "h1", room.HostelID)
}

func TestRoomServiceCreateRejectsOversizedCapacity(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := newMockRoomRepo()
	svc := NewRoomService(tx, repo, repo, repo, nil, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Create(context.Background(), adminClaims(), dto.CreateRoomRequest{RoomNumber: "201", RoomTypeID: "double", Capacity: 3})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCapacity)
	assert.Empty(t, repo.created)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Create(context.Background(), adminClaims(), dto.CreateRoomRequest{RoomNumber: "201", RoomTypeID: "suite"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	repo.numbers["h1/201"] = "room-x"
	_, err = svc.Create(context.Background(), adminClaims(), dto.CreateRoomRequest{RoomNumber: "201", RoomTypeID: "double"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomServiceCreateChecksCapacityAgainstLockedType(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := newMockRoomRepo()
	svc := NewRoomService(tx, repo, repo, repo, nil, nil, nil, nil, nil)

	// A committed type edit shrank the quad template; the share-locked read must see it.
	shrunk := repo.types["quad"]
	shrunk.Capacity = 2
	repo.types["quad"] = shrunk

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Create(context.Background(), adminClaims(), dto.CreateRoomRequest{RoomNumber: "202", RoomTypeID: "quad", Capacity: 4})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCapacity)
	assert.Equal(t, []string{"quad"}, repo.sharedTypes)
	assert.Empty(t, repo.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomServiceUpdateCapacityBounds(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		typeID   string
		wantErr  *appErrors.Error
	}{
		{name: "within type", capacity: 3, typeID: "quad"},
		{name: "above type capacity", capacity: 5, typeID: "quad", wantErr: appErrors.ErrInvalidCapacity},
		{name: "below occupancy", capacity: 1, typeID: "quad", wantErr: appErrors.ErrInvalidCapacity},
		{name: "smaller type", capacity: 2, typeID: "double"},
		{name: "unknown type", capacity: 2, typeID: "suite", wantErr: appErrors.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx, mock := newTxProviderMock(t)
			repo := newMockRoomRepo(quadRoom("room-a", "101", 2))
			svc := NewRoomService(tx, repo, repo, repo, nil, nil, NewMetricsService(), nil, nil)

			mock.ExpectBegin()
			if tc.wantErr == nil {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			room, err := svc.Update(context.Background(), adminClaims(), "room-a", dto.UpdateRoomRequest{RoomNumber: "101", RoomTypeID: tc.typeID, Capacity: tc.capacity})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, 4, repo.rooms["room-a"].Capacity)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.capacity, room.Capacity)
				assert.Equal(t, 2, room.OccupancyCount)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRoomServiceSetMaintenance(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	other := quadRoom("room-z", "901", 0)
	other.HostelID = "h2"
	repo := newMockRoomRepo(quadRoom("room-a", "101", 2), other)
	svc := NewRoomService(tx, repo, repo, repo, nil, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()
	room, err := svc.SetMaintenance(context.Background(), adminClaims(), "room-a", dto.SetMaintenanceRequest{UnderMaintenance: true})
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusMaintenance, room.Status)
	assert.Equal(t, 2, room.OccupancyCount)
	assert.True(t, repo.rooms["room-a"].UnderMaintenance)
	assert.Equal(t, []string{"room-a"}, repo.locked)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.SetMaintenance(context.Background(), adminClaims(), "room-z", dto.SetMaintenanceRequest{UnderMaintenance: true})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.False(t, repo.rooms["room-z"].UnderMaintenance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomServiceDeleteRules(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := newMockRoomRepo(quadRoom("room-a", "101", 1), quadRoom("room-b", "102", 0), quadRoom("room-c", "103", 0))
	repo.pendingByRoom["room-b"] = 1
	svc := NewRoomService(tx, repo, repo, repo, nil, nil, nil, nil, nil)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.ErrorIs(t, svc.Delete(ctx, adminClaims(), "room-a"), appErrors.ErrConflict)

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.ErrorIs(t, svc.Delete(ctx, adminClaims(), "room-b"), appErrors.ErrConflict)

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.Delete(ctx, adminClaims(), "room-c"))
	assert.Equal(t, []string{"room-c"}, repo.deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomServiceListScopesHostelAndStatus(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	repo := newMockRoomRepo()
	svc := NewRoomService(tx, repo, repo, repo, nil, nil, nil, nil, nil)

	_, _, err := svc.List(context.Background(), adminClaims(), models.RoomFilter{HostelID: "h2", Status: models.RoomStatusAvailable})
	require.NoError(t, err)
	assert.Equal(t, "h1", repo.lastFilter.HostelID)

	_, _, err = svc.List(context.Background(), adminClaims(), models.RoomFilter{Status: "vacant"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

type mockRoomTypeRepo struct {
	types  map[string]models.RoomType
	locked []string
}

func (m *mockRoomTypeRepo) List(ctx context.Context) ([]models.RoomType, error) {
	out := make([]models.RoomType, 0, len(m.types))
	for _, rt := range m.types {
		out = append(out, rt)
	}
	return out, nil
}

func (m *mockRoomTypeRepo) FindByID(ctx context.Context, id string) (*models.RoomType, error) {
	rt, ok := m.types[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rt, nil
}

func (m *mockRoomTypeRepo) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.RoomType, error) {
	m.locked = append(m.locked, id)
	return m.FindByID(ctx, id)
}

func (m *mockRoomTypeRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for id, rt := range m.types {
		if rt.Name == name && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRoomTypeRepo) Create(ctx context.Context, rt *models.RoomType) error {
	rt.ID = "rt-new"
	m.types[rt.ID] = *rt
	return nil
}

func (m *mockRoomTypeRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, rt *models.RoomType) error {
	m.types[rt.ID] = *rt
	return nil
}

func (m *mockRoomTypeRepo) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	delete(m.types, id)
	return nil
}

func TestRoomTypeServiceUpdateCannotShrinkBelowRooms(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	types := &mockRoomTypeRepo{types: map[string]models.RoomType{"quad": {ID: "quad", Name: "Quad", Capacity: 4}}}
	rooms := newMockRoomRepo()
	rooms.maxByType["quad"] = 4
	svc := NewRoomTypeService(tx, types, rooms, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Update(context.Background(), adminClaims(), "quad", dto.UpdateRoomTypeRequest{Name: "Quad", Capacity: 3, PricePerMonth: 5000})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCapacity)
	assert.Equal(t, 4, types.types["quad"].Capacity)

	mock.ExpectBegin()
	mock.ExpectCommit()
	updated, err := svc.Update(context.Background(), adminClaims(), "quad", dto.UpdateRoomTypeRequest{Name: "Quad", Capacity: 6, PricePerMonth: 5200})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Capacity)
	assert.Equal(t, 5200.0, types.types["quad"].PricePerMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomTypeServiceCreateAndDelete(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	types := &mockRoomTypeRepo{types: map[string]models.RoomType{"quad": {ID: "quad", Name: "Quad", Capacity: 4}}}
	rooms := newMockRoomRepo()
	rooms.countByType["quad"] = 2
	svc := NewRoomTypeService(tx, types, rooms, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, adminClaims(), dto.CreateRoomTypeRequest{Name: "Quad", Capacity: 4})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	created, err := svc.Create(ctx, adminClaims(), dto.CreateRoomTypeRequest{Name: "Single", Capacity: 1, PricePerMonth: 9000})
	require.NoError(t, err)
	assert.Equal(t, "rt-new", created.ID)

	_, err = svc.Create(ctx, adminClaims(), dto.CreateRoomTypeRequest{Name: "Zero", Capacity: 0})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.ErrorIs(t, svc.Delete(ctx, adminClaims(), "quad"), appErrors.ErrConflict)
	assert.Contains(t, types.types, "quad")

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, svc.Delete(ctx, adminClaims(), "rt-new"))

	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.ErrorIs(t, svc.Delete(ctx, adminClaims(), "rt-new"), appErrors.ErrNotFound)

	assert.Equal(t, []string{"quad", "rt-new", "rt-new"}, types.locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
