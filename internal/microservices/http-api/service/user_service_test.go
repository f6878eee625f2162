package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/dto"
	"patentadmin/internal/microservices/http-api/models"
)

func newTestUserService(userRepo *MockUserRepository, paymentRepo *MockPaymentRepository, subRepo *MockSubscriptionRepository) UserService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserService(userRepo, paymentRepo, subRepo, logger)
}

func TestCreateUser_Defaults(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestUserService(userRepo, new(MockPaymentRepository), new(MockSubscriptionRepository))

	userRepo.On("FindByEmail", "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)

	user, err := svc.CreateUser(&dto.CreateUserRequest{
		Email:    "new@example.com",
		Name:     "New User",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.Equal(t, "user", user.Role)
	assert.Equal(t, "free", user.SubscriptionPlan)
	assert.True(t, user.IsActive)
	// The stored password is a bcrypt hash, not the cleartext
	assert.NotEqual(t, "password123", user.Password)
}

func TestCreateUser_EmailTaken(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestUserService(userRepo, new(MockPaymentRepository), new(MockSubscriptionRepository))

	userRepo.On("FindByEmail", "taken@example.com").Return(&models.User{ID: "user-1"}, nil)

	_, err := svc.CreateUser(&dto.CreateUserRequest{
		Email:    "taken@example.com",
		Name:     "Dup",
		Password: "password123",
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
	userRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestUpdateUser_PartialUpdate(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestUserService(userRepo, new(MockPaymentRepository), new(MockSubscriptionRepository))

	userRepo.On("FindByID", "user-1").Return(&models.User{
		ID:               "user-1",
		Email:            "old@example.com",
		Name:             "Old Name",
		SubscriptionPlan: "free",
	}, nil)
	userRepo.On("Update", mock.AnythingOfType("*models.User")).Return(nil)

	plan := "pro"
	user, err := svc.UpdateUser("user-1", &dto.UpdateUserRequest{SubscriptionPlan: &plan})

	assert.NoError(t, err)
	assert.Equal(t, "pro", user.SubscriptionPlan)
	// Untouched fields stay as they were
	assert.Equal(t, "old@example.com", user.Email)
	assert.Equal(t, "Old Name", user.Name)
}

func TestDeactivateUser_AlreadyInactive(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestUserService(userRepo, new(MockPaymentRepository), new(MockSubscriptionRepository))

	userRepo.On("FindByID", "user-1").Return(&models.User{ID: "user-1", IsActive: false}, nil)

	err := svc.DeactivateUser("user-1")

	assert.ErrorIs(t, err, ErrUserDeactivated)
	userRepo.AssertNotCalled(t, "Deactivate", mock.Anything)
}

func TestBulkUpdateUsers_NoFields(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestUserService(userRepo, new(MockPaymentRepository), new(MockSubscriptionRepository))

	_, err := svc.BulkUpdateUsers(&dto.BulkUpdateUsersRequest{UserIDs: []string{"user-1"}})

	assert.ErrorIs(t, err, ErrNoUpdateFields)
	userRepo.AssertNotCalled(t, "BulkUpdate", mock.Anything, mock.Anything)
}

func TestBulkUpdateUsers_BuildsUpdateMap(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newTestUserService(userRepo, new(MockPaymentRepository), new(MockSubscriptionRepository))

	inactive := false
	userRepo.On("BulkUpdate", []string{"user-1", "user-2"}, map[string]any{"is_active": false}).
		Return(int64(2), nil)

	affected, err := svc.BulkUpdateUsers(&dto.BulkUpdateUsersRequest{
		UserIDs:  []string{"user-1", "user-2"},
		IsActive: &inactive,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	userRepo.AssertExpectations(t)
}

func TestGetUserActivity_NoSubscription(t *testing.T) {
	userRepo := new(MockUserRepository)
	paymentRepo := new(MockPaymentRepository)
	subRepo := new(MockSubscriptionRepository)
	svc := newTestUserService(userRepo, paymentRepo, subRepo)

	userRepo.On("FindByID", "user-1").Return(&models.User{ID: "user-1"}, nil)
	paymentRepo.On("FindRecentByUserID", "user-1", 10).Return([]models.Payment{{ID: "pay-1"}}, nil)
	subRepo.On("FindActiveByUserID", "user-1").Return(nil, gorm.ErrRecordNotFound)

	activity, err := svc.GetUserActivity("user-1")

	assert.NoError(t, err)
	assert.Len(t, activity.RecentPayments, 1)
	assert.Nil(t, activity.Subscription)
}
