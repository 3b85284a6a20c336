package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type mockFeeStore struct {
	fees       map[string]models.Fee
	overdueAt  time.Time
	lastFilter models.FeeFilter
}

func newMockFeeStore(fees ...models.Fee) *mockFeeStore {
	store := &mockFeeStore{fees: map[string]models.Fee{}}
	for _, fee := range fees {
		store.fees[fee.ID] = fee
	}
	return store
}

func (m *mockFeeStore) List(ctx context.Context, filter models.FeeFilter) ([]models.FeeDetail, int, error) {
	m.lastFilter = filter
	var out []models.FeeDetail
	for _, fee := range m.fees {
		if filter.StudentID != "" && fee.StudentID != filter.StudentID {
			continue
		}
		out = append(out, models.FeeDetail{Fee: fee, HostelID: "h1"})
	}
	return out, len(out), nil
}

func (m *mockFeeStore) FindByID(ctx context.Context, id string) (*models.FeeDetail, error) {
	fee, ok := m.fees[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.FeeDetail{Fee: fee, HostelID: "h1"}, nil
}

func (m *mockFeeStore) Create(ctx context.Context, fee *models.Fee) error {
	fee.ID = "fee-new"
	m.fees[fee.ID] = *fee
	return nil
}

func (m *mockFeeStore) Update(ctx context.Context, fee *models.Fee) (bool, error) {
	if m.fees[fee.ID].Status != models.FeeStatusPending {
		return false, nil
	}
	m.fees[fee.ID] = *fee
	return true, nil
}

func (m *mockFeeStore) MarkPaid(ctx context.Context, id string, paidDate time.Time) (bool, error) {
	fee := m.fees[id]
	if fee.Status == models.FeeStatusPaid {
		return false, nil
	}
	fee.Status = models.FeeStatusPaid
	fee.PaidDate = &paidDate
	m.fees[id] = fee
	return true, nil
}

func (m *mockFeeStore) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	m.overdueAt = asOf
	var updated int64
	for id, fee := range m.fees {
		if fee.Status == models.FeeStatusPending && fee.DueDate.Before(asOf) {
			fee.Status = models.FeeStatusOverdue
			m.fees[id] = fee
			updated++
		}
	}
	return updated, nil
}

func (m *mockFeeStore) Delete(ctx context.Context, id string) (bool, error) {
	if m.fees[id].Status != models.FeeStatusPending {
		return false, nil
	}
	delete(m.fees, id)
	return true, nil
}

var feeClock = time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)

func newFeeFixture(t *testing.T, fees *mockFeeStore) (*FeeService, *mockStudentStore) {
	t.Helper()
	rooms := newMockRoomStore(quadRoom("room-a", "101", 2))
	rooms.types["quad"] = models.RoomType{ID: "quad", Name: "Quad", Capacity: 4, PricePerMonth: 5000}
	housed := activeStudent("stu-1", strPtr("room-a"))
	housed.UserID = strPtr("user-1")
	students := newMockStudentStore(housed, activeStudent("stu-2", nil))
	svc := NewFeeService(fees, students, NewFeeCalculator(students, rooms), nil, nil, nil, nil, FeeServiceConfig{DefaultDueDays: 14})
	svc.now = func() time.Time { return feeClock }
	return svc, students
}

func TestFeeCalculatorUsesRoomTypePrice(t *testing.T) {
	rooms := newMockRoomStore(quadRoom("room-a", "101", 2))
	rooms.types["quad"] = models.RoomType{ID: "quad", Name: "Quad", Capacity: 4, PricePerMonth: 5000}
	students := newMockStudentStore(activeStudent("stu-1", strPtr("room-a")), activeStudent("stu-2", nil))
	calc := NewFeeCalculator(students, rooms)

	result, err := calc.Calculate(context.Background(), adminClaims(), "stu-1")
	require.NoError(t, err)
	assert.True(t, result.HasRoom)
	require.NotNil(t, result.CalculatedAmount)
	assert.Equal(t, 5000.0, *result.CalculatedAmount)
	assert.Equal(t, "101", result.RoomNumber)
	assert.Equal(t, "Quad", result.RoomType)

	result, err = calc.Calculate(context.Background(), adminClaims(), "stu-2")
	require.NoError(t, err)
	assert.False(t, result.HasRoom)
	assert.Nil(t, result.CalculatedAmount)

	_, err = calc.Calculate(context.Background(), adminClaims(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestProposedAmountFollowsFeeType(t *testing.T) {
	price := 5000.0
	calc := &dto.FeeCalculation{HasRoom: true, CalculatedAmount: &price}

	require.NotNil(t, ProposedAmount(models.FeeTypeHostel, calc))
	assert.Nil(t, ProposedAmount(models.FeeTypeMess, calc))
	assert.Equal(t, 5000.0, *ProposedAmount(models.FeeTypeHostel, calc))
	assert.Nil(t, ProposedAmount(models.FeeTypeHostel, &dto.FeeCalculation{HasRoom: false}))

	assert.Nil(t, ForFeeType(models.FeeTypeFine, calc).CalculatedAmount)
	assert.Equal(t, &price, calc.CalculatedAmount)
}

func TestFeeServiceCreateKeepsSubmittedAmount(t *testing.T) {
	fees := newMockFeeStore()
	svc, _ := newFeeFixture(t, fees)
	override := 4500.0

	fee, err := svc.Create(context.Background(), adminClaims(), dto.CreateFeeRequest{StudentID: "stu-1", FeeType: models.FeeTypeHostel, Amount: &override})
	require.NoError(t, err)
	assert.Equal(t, 4500.0, fee.Amount)
	assert.Equal(t, 4500.0, fees.fees["fee-new"].Amount)
	assert.Equal(t, models.FeeStatusPending, fee.Status)
	assert.Equal(t, feeClock.AddDate(0, 0, 14), fee.DueDate)
}

func TestFeeServiceCreateProposesHostelAmount(t *testing.T) {
	fees := newMockFeeStore()
	svc, _ := newFeeFixture(t, fees)
	ctx := context.Background()

	fee, err := svc.Create(ctx, adminClaims(), dto.CreateFeeRequest{StudentID: "stu-1", FeeType: models.FeeTypeHostel})
	require.NoError(t, err)
	assert.Equal(t, 5000.0, fee.Amount)

	_, err = svc.Create(ctx, adminClaims(), dto.CreateFeeRequest{StudentID: "stu-1", FeeType: models.FeeTypeMess})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, adminClaims(), dto.CreateFeeRequest{StudentID: "stu-2", FeeType: models.FeeTypeHostel})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(ctx, adminClaims(), dto.CreateFeeRequest{StudentID: "stu-1", FeeType: "rent"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestFeeServiceCreateRejectsZeroPriceProposal(t *testing.T) {
	rooms := newMockRoomStore(quadRoom("room-a", "101", 2))
	rooms.types["quad"] = models.RoomType{ID: "quad", Name: "Quad", Capacity: 4, PricePerMonth: 0}
	students := newMockStudentStore(activeStudent("stu-1", strPtr("room-a")))
	fees := newMockFeeStore()
	svc := NewFeeService(fees, students, NewFeeCalculator(students, rooms), nil, nil, nil, nil, FeeServiceConfig{})
	svc.now = func() time.Time { return feeClock }
	ctx := context.Background()

	_, err := svc.Create(ctx, adminClaims(), dto.CreateFeeRequest{StudentID: "stu-1", FeeType: models.FeeTypeHostel})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, fees.fees)

	amount := 4500.0
	fee, err := svc.Create(ctx, adminClaims(), dto.CreateFeeRequest{StudentID: "stu-1", FeeType: models.FeeTypeHostel, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 4500.0, fee.Amount)
}

func TestFeeServiceDerivesOverdueOnRead(t *testing.T) {
	fees := newMockFeeStore(models.Fee{ID: "fee-1", StudentID: "stu-1", FeeType: models.FeeTypeMess, Amount: 900, DueDate: feeClock.AddDate(0, 0, -1), Status: models.FeeStatusPending})
	svc, _ := newFeeFixture(t, fees)

	fee, err := svc.Get(context.Background(), adminClaims(), "fee-1")
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusOverdue, fee.Status)
	assert.Equal(t, models.FeeStatusPending, fees.fees["fee-1"].Status)
}

func TestFeeServicePayAndLifecycle(t *testing.T) {
	fees := newMockFeeStore(
		models.Fee{ID: "fee-1", StudentID: "stu-1", FeeType: models.FeeTypeHostel, Amount: 5000, DueDate: feeClock, Status: models.FeeStatusPending},
		models.Fee{ID: "fee-2", StudentID: "stu-1", FeeType: models.FeeTypeFine, Amount: 50, DueDate: feeClock, Status: models.FeeStatusOverdue},
	)
	svc, _ := newFeeFixture(t, fees)
	ctx := context.Background()

	paid, err := svc.Pay(ctx, adminClaims(), "fee-1", dto.PayFeeRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, feeClock, *paid.PaidDate)

	_, err = svc.Pay(ctx, adminClaims(), "fee-1", dto.PayFeeRequest{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Update(ctx, adminClaims(), "fee-1", dto.UpdateFeeRequest{FeeType: models.FeeTypeHostel, Amount: 10, DueDate: feeClock})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	err = svc.Delete(ctx, adminClaims(), "fee-2")
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Pay(ctx, adminClaims(), "fee-2", dto.PayFeeRequest{})
	require.NoError(t, err)
}

func TestFeeServiceSweepOverdueIsIdempotent(t *testing.T) {
	fees := newMockFeeStore(
		models.Fee{ID: "fee-1", StudentID: "stu-1", Status: models.FeeStatusPending, DueDate: feeClock.AddDate(0, 0, -3)},
		models.Fee{ID: "fee-2", StudentID: "stu-1", Status: models.FeeStatusPending, DueDate: feeClock},
	)
	svc, _ := newFeeFixture(t, fees)

	result, err := svc.SweepOverdue(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Updated)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), fees.overdueAt)
	assert.Equal(t, models.FeeStatusPending, fees.fees["fee-2"].Status)

	result, err = svc.SweepOverdue(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Updated)
}

func TestFeeServiceStudentSeesOwnLedger(t *testing.T) {
	fees := newMockFeeStore(
		models.Fee{ID: "fee-1", StudentID: "stu-1", Status: models.FeeStatusPending, DueDate: feeClock},
		models.Fee{ID: "fee-2", StudentID: "stu-2", Status: models.FeeStatusPending, DueDate: feeClock},
	)
	svc, _ := newFeeFixture(t, fees)
	actor := &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent, HostelID: "h1"}

	items, _, err := svc.List(context.Background(), actor, dto.FeeQuery{StudentID: "stu-2"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "stu-1", items[0].StudentID)

	_, err = svc.Get(context.Background(), actor, "fee-2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Pay(context.Background(), actor, "fee-1", dto.PayFeeRequest{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
