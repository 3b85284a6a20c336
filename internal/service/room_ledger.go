package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// CheckAllocatable reports why a room cannot take one more occupant, or nil when it can.
func CheckAllocatable(room models.Room) error {
	if room.UnderMaintenance {
		return appErrors.Clone(appErrors.ErrRoomUnavailable, fmt.Sprintf("room %s is under maintenance", room.RoomNumber))
	}
	if room.CapacityRemaining() <= 0 {
		return appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("room %s is full", room.RoomNumber))
	}
	return nil
}

// Occupy takes one bed in the room.
func Occupy(room *models.Room) error {
	if err := CheckAllocatable(*room); err != nil {
		return err
	}
	room.OccupancyCount++
	return nil
}

// Release frees one bed in the room. Occupancy never drops below zero.
func Release(room *models.Room) {
	if room.OccupancyCount > 0 {
		room.OccupancyCount--
	}
}

// ValidateRoomCapacity checks a capacity edit against the room type and the current occupants.
func ValidateRoomCapacity(newCapacity int, roomType models.RoomType, occupancy int) error {
	if newCapacity <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidCapacity, "room capacity must be positive")
	}
	if newCapacity > roomType.Capacity {
		return appErrors.Clone(appErrors.ErrInvalidCapacity, fmt.Sprintf("room capacity %d exceeds %s capacity %d", newCapacity, roomType.Name, roomType.Capacity))
	}
	if newCapacity < occupancy {
		return appErrors.Clone(appErrors.ErrInvalidCapacity, fmt.Sprintf("room capacity %d is below current occupancy %d", newCapacity, occupancy))
	}
	return nil
}

func requireActor(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	return nil
}

func requireAdmin(actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "administrator role required")
	}
	return nil
}

func authorizeHostel(actor *models.JWTClaims, hostelID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.CanAccessHostel(hostelID) {
		return appErrors.Clone(appErrors.ErrForbidden, "record belongs to another hostel")
	}
	return nil
}

// authorizeStudent lets admins reach residents of their hostel and students reach only themselves.
func authorizeStudent(actor *models.JWTClaims, student models.Student) error {
	if err := authorizeHostel(actor, student.HostelID); err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	if student.UserID == nil || *student.UserID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "students may only access their own records")
	}
	return nil
}

func wrapInternal(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// resolveHostel picks the hostel for a new record: the requested one, else the caller's own.
func resolveHostel(actor *models.JWTClaims, requested string) (string, error) {
	hostelID := requested
	if hostelID == "" && actor != nil {
		hostelID = actor.HostelID
	}
	if hostelID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "hostel_id is required")
	}
	if err := authorizeHostel(actor, hostelID); err != nil {
		return "", err
	}
	return hostelID, nil
}
