package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-api/internal/dto"
	"github.com/noah-isme/hostel-api/internal/models"
	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

type mockStudentRepo struct {
	students       map[string]models.Student
	existsByNumber map[string]string
	deactivated    []string
	locked         []string
	onLock         func(*models.Student)
	lastFilter     models.StudentFilter
	listTotal      int
	err            error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	details := make([]models.StudentDetail, 0, len(m.students))
	for _, s := range m.students {
		details = append(details, models.StudentDetail{Student: s})
	}
	return details, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		detail := models.StudentDetail{Student: s}
		return &detail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByNumber(ctx context.Context, number string, excludeID string) (bool, error) {
	if id, ok := m.existsByNumber[number]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) UpdateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.Student, error) {
	m.locked = append(m.locked, id)
	if s, ok := m.students[id]; ok {
		if m.onLock != nil {
			m.onLock(&s)
		}
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) DeactivateTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	m.deactivated = append(m.deactivated, id)
	if s, ok := m.students[id]; ok {
		s.Status = models.StudentStatusInactive
		m.students[id] = s
	}
	return nil
}

func TestStudentServiceCreate(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	repo := &mockStudentRepo{existsByNumber: make(map[string]string)}
	svc := NewStudentService(tx, repo, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), adminClaims(), dto.CreateStudentRequest{
		StudentNumber: "1234",
		FullName:      "Rina Putri",
		Email:         "rina@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, "h1", student.HostelID)
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.Nil(t, student.RoomID)
	assert.Equal(t, 1, len(repo.students))
}

func TestStudentServiceCreateDuplicate(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	repo := &mockStudentRepo{existsByNumber: map[string]string{"123": "another"}}
	svc := NewStudentService(tx, repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), adminClaims(), dto.CreateStudentRequest{StudentNumber: "123", FullName: "A"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestStudentServiceCreateOtherHostelForbidden(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	repo := &mockStudentRepo{}
	svc := NewStudentService(tx, repo, nil, nil)

	_, err := svc.Create(context.Background(), adminClaims(), dto.CreateStudentRequest{HostelID: "h2", StudentNumber: "123", FullName: "A"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, repo.students)
}

func TestStudentServiceUpdate(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": activeStudent("id1", nil)}, existsByNumber: make(map[string]string)}
	svc := NewStudentService(tx, repo, validator.New(), zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()
	updated, err := svc.Update(context.Background(), adminClaims(), "id1", dto.UpdateStudentRequest{StudentNumber: "222", FullName: "New", Status: models.StudentStatusActive})
	require.NoError(t, err)
	assert.Equal(t, "222", updated.StudentNumber)
	assert.Equal(t, "New", updated.FullName)
	assert.Equal(t, "222", repo.students["id1"].StudentNumber)
	assert.Equal(t, []string{"id1"}, repo.locked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceUpdateCannotDeactivateHousedStudent(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": activeStudent("id1", strPtr("room-a"))}}
	svc := NewStudentService(tx, repo, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Update(context.Background(), adminClaims(), "id1", dto.UpdateStudentRequest{StudentNumber: "1001", FullName: "Rina", Status: models.StudentStatusInactive})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, models.StudentStatusActive, repo.students["id1"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceUpdateSeesAllocationCommittedBeforeLock(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": activeStudent("id1", nil)}}
	// The row is unhoused when read without a lock; an allocation commits before the lock is granted.
	repo.onLock = func(s *models.Student) { s.RoomID = strPtr("room-a") }
	svc := NewStudentService(tx, repo, nil, nil)

	detail, err := svc.Get(context.Background(), adminClaims(), "id1")
	require.NoError(t, err)
	require.False(t, detail.HasRoom())

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Update(context.Background(), adminClaims(), "id1", dto.UpdateStudentRequest{StudentNumber: "1001", FullName: "Rina", Status: models.StudentStatusInactive})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, models.StudentStatusActive, repo.students["id1"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceUpdateOtherHostelForbidden(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	other := activeStudent("id2", nil)
	other.HostelID = "h2"
	repo := &mockStudentRepo{students: map[string]models.Student{"id2": other}}
	svc := NewStudentService(tx, repo, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.Update(context.Background(), adminClaims(), "id2", dto.UpdateStudentRequest{StudentNumber: "1002", FullName: "Dewi", Status: models.StudentStatusActive})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err = svc.Update(context.Background(), adminClaims(), "missing", dto.UpdateStudentRequest{StudentNumber: "1003", FullName: "Ayu", Status: models.StudentStatusActive})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceDeactivate(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": activeStudent("id1", nil)}}
	svc := NewStudentService(tx, repo, validator.New(), zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := svc.Deactivate(context.Background(), adminClaims(), "id1")
	require.NoError(t, err)
	assert.Contains(t, repo.deactivated, "id1")
	assert.Equal(t, models.StudentStatusInactive, repo.students["id1"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceDeactivateHousedStudentRejected(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": activeStudent("id1", strPtr("room-a"))}}
	svc := NewStudentService(tx, repo, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := svc.Deactivate(context.Background(), adminClaims(), "id1")
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, repo.deactivated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceListScopesHostel(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	repo := &mockStudentRepo{listTotal: 0}
	svc := NewStudentService(tx, repo, nil, nil)

	_, pagination, err := svc.List(context.Background(), adminClaims(), models.StudentFilter{HostelID: "h9", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, "h1", repo.lastFilter.HostelID)
	assert.Equal(t, 2, pagination.Page)

	student := &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent, HostelID: "h1"}
	_, _, err = svc.List(context.Background(), student, models.StudentFilter{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestStudentServiceGetSelfOnly(t *testing.T) {
	tx, _ := newTxProviderMock(t)
	self := activeStudent("id1", nil)
	self.UserID = strPtr("user-1")
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": self, "id2": activeStudent("id2", nil)}}
	svc := NewStudentService(tx, repo, nil, nil)
	actor := &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent, HostelID: "h1"}

	got, err := svc.Get(context.Background(), actor, "id1")
	require.NoError(t, err)
	assert.Equal(t, "id1", got.ID)

	_, err = svc.Get(context.Background(), actor, "id2")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
