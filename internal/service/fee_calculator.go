package service

import (
	"context"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
)

type calculatorStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type calculatorRoomRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.RoomDetail, error)
}

// FeeCalculator proposes a hostel fee from the price of the student's room type.
// The proposal is informational; the amount recorded on a fee is whatever the caller submits.
type FeeCalculator struct {
	students calculatorStudentRepository
	rooms    calculatorRoomRepository
}

// NewFeeCalculator constructs the calculator.
func NewFeeCalculator(students calculatorStudentRepository, rooms calculatorRoomRepository) *FeeCalculator {
	return &FeeCalculator{students: students, rooms: rooms}
}

// Calculate resolves student, room and room type into a monthly price.
// A student without a room is not an error; the result simply carries no amount.
func (c *FeeCalculator) Calculate(ctx context.Context, actor *models.JWTClaims, studentID string) (*dto.FeeCalculation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	detail, err := c.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if err := authorizeStudent(actor, detail.Student); err != nil {
		return nil, err
	}
	if !detail.HasRoom() {
		return &dto.FeeCalculation{HasRoom: false}, nil
	}

	room, err := c.rooms.FindDetailByID(ctx, *detail.RoomID)
	if err != nil {
		return nil, notFoundOr(err, "room not found", "failed to load room")
	}
	price := room.PricePerMonth
	return &dto.FeeCalculation{
		HasRoom:          true,
		CalculatedAmount: &price,
		RoomNumber:       room.RoomNumber,
		RoomType:         room.RoomTypeName,
	}, nil
}

// ProposedAmount applies the fee type selector: only hostel fees take the calculated amount.
func ProposedAmount(feeType models.FeeType, calc *dto.FeeCalculation) *float64 {
	if feeType != models.FeeTypeHostel || calc == nil || !calc.HasRoom || calc.CalculatedAmount == nil {
		return nil
	}
	amount := *calc.CalculatedAmount
	return &amount
}

// ForFeeType returns a copy of calc with the amount withheld for non-hostel fee types.
func ForFeeType(feeType models.FeeType, calc *dto.FeeCalculation) *dto.FeeCalculation {
	if calc == nil || feeType == "" {
		return calc
	}
	out := *calc
	out.CalculatedAmount = ProposedAmount(feeType, calc)
	return &out
}
