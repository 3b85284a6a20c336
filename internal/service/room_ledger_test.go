package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

func TestDeriveRoomStatusForCapacityFour(t *testing.T) {
	cases := []struct {
		occupancy   int
		maintenance bool
		status      models.RoomStatus
		remaining   int
	}{
		{0, false, models.RoomStatusAvailable, 4},
		{1, false, models.RoomStatusPartiallyOccupied, 3},
		{3, false, models.RoomStatusPartiallyOccupied, 1},
		{4, false, models.RoomStatusOccupied, 0},
		{0, true, models.RoomStatusMaintenance, 4},
		{4, true, models.RoomStatusMaintenance, 0},
	}
	for _, tc := range cases {
		room := models.Room{Capacity: 4, OccupancyCount: tc.occupancy, UnderMaintenance: tc.maintenance}
		assert.Equal(t, tc.status, room.Status(), "occupancy %d maintenance %v", tc.occupancy, tc.maintenance)
		assert.Equal(t, tc.remaining, room.CapacityRemaining())
	}
}

func TestOccupyFullRoom(t *testing.T) {
	room := &models.Room{RoomNumber: "101", Capacity: 4, OccupancyCount: 4}
	err := Occupy(room)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrCapacityExceeded)
	assert.Equal(t, 4, room.OccupancyCount)
}

func TestOccupyMaintenanceRoom(t *testing.T) {
	room := &models.Room{RoomNumber: "101", Capacity: 4, OccupancyCount: 1, UnderMaintenance: true}
	err := Occupy(room)
	assert.ErrorIs(t, err, appErrors.ErrRoomUnavailable)
	assert.Equal(t, 1, room.OccupancyCount)
}

func TestOccupyAndRelease(t *testing.T) {
	room := &models.Room{Capacity: 2}
	require.NoError(t, Occupy(room))
	require.NoError(t, Occupy(room))
	assert.Equal(t, models.RoomStatusOccupied, room.Status())
	Release(room)
	assert.Equal(t, models.RoomStatusPartiallyOccupied, room.Status())
	Release(room)
	Release(room)
	assert.Equal(t, 0, room.OccupancyCount)
}

func TestValidateRoomCapacity(t *testing.T) {
	double := models.RoomType{Name: "Double", Capacity: 2}

	assert.NoError(t, ValidateRoomCapacity(2, double, 1))
	assert.ErrorIs(t, ValidateRoomCapacity(3, double, 0), appErrors.ErrInvalidCapacity)
	assert.ErrorIs(t, ValidateRoomCapacity(1, double, 2), appErrors.ErrInvalidCapacity)
	assert.ErrorIs(t, ValidateRoomCapacity(0, double, 0), appErrors.ErrInvalidCapacity)
}

func TestAuthorizeStudent(t *testing.T) {
	userID := "u-1"
	student := models.Student{HostelID: "h1", UserID: &userID}

	assert.NoError(t, authorizeStudent(&models.JWTClaims{Role: models.RoleAdmin, HostelID: "h1"}, student))
	assert.NoError(t, authorizeStudent(&models.JWTClaims{Role: models.RoleSuperAdmin}, student))
	assert.NoError(t, authorizeStudent(&models.JWTClaims{Role: models.RoleStudent, HostelID: "h1", UserID: "u-1"}, student))
	assert.ErrorIs(t, authorizeStudent(&models.JWTClaims{Role: models.RoleStudent, HostelID: "h1", UserID: "u-2"}, student), appErrors.ErrForbidden)
	assert.ErrorIs(t, authorizeStudent(&models.JWTClaims{Role: models.RoleAdmin, HostelID: "h2"}, student), appErrors.ErrForbidden)
	assert.ErrorIs(t, authorizeStudent(nil, student), appErrors.ErrUnauthorized)
}
