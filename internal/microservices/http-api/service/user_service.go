package service

import (
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"patentadmin/internal/microservices/http-api/dto"
	"patentadmin/internal/microservices/http-api/models"
	"patentadmin/internal/microservices/http-api/repository"
	"patentadmin/internal/middleware/auth"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrNoUpdateFields  = errors.New("no fields to update")
	ErrUserDeactivated = errors.New("user already deactivated")
)

// UserStatistics aggregates counts used by the user management screens.
type UserStatistics struct {
	TotalUsers   int64            `json:"total_users"`
	ActiveUsers  int64            `json:"active_users"`
	NewThisWeek  int64            `json:"new_this_week"`
	NewThisMonth int64            `json:"new_this_month"`
	ByRole       map[string]int64 `json:"by_role"`
	ByPlan       map[string]int64 `json:"by_plan"`
}

// UserActivity is the per-user activity view: recent payments plus the
// subscription currently in force.
type UserActivity struct {
	User           models.User          `json:"user"`
	RecentPayments []models.Payment     `json:"recent_payments"`
	Subscription   *models.Subscription `json:"subscription"`
}

type UserService interface {
	ListUsers(filter repository.UserListFilter) (*dto.UserListResponse, error)
	GetUser(id string) (*models.User, error)
	GetUserActivity(id string) (*UserActivity, error)
	GetStatistics() (*UserStatistics, error)
	CreateUser(req *dto.CreateUserRequest) (*models.User, error)
	UpdateUser(id string, req *dto.UpdateUserRequest) (*models.User, error)
	DeactivateUser(id string) error
	BulkUpdateUsers(req *dto.BulkUpdateUsersRequest) (int64, error)
}

type userService struct {
	userRepo    repository.UserRepository
	paymentRepo repository.PaymentRepository
	subRepo     repository.SubscriptionRepository
	logger      *slog.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	paymentRepo repository.PaymentRepository,
	subRepo repository.SubscriptionRepository,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		subRepo:     subRepo,
		logger:      logger,
	}
}

func (s *userService) ListUsers(filter repository.UserListFilter) (*dto.UserListResponse, error) {
	users, total, err := s.userRepo.List(filter)
	if err != nil {
		return nil, err
	}

	size := filter.Limit
	if size <= 0 {
		size = 100
	}
	page := 1
	if size > 0 {
		page = filter.Offset/size + 1
	}

	return &dto.UserListResponse{
		Users: users,
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}

func (s *userService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *userService) GetUserActivity(id string) (*UserActivity, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.FindRecentByUserID(id, 10)
	if err != nil {
		return nil, err
	}

	sub, err := s.subRepo.FindActiveByUserID(id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return &UserActivity{
		User:           *user,
		RecentPayments: payments,
		Subscription:   sub,
	}, nil
}

func (s *userService) GetStatistics() (*UserStatistics, error) {
	total, err := s.userRepo.CountAll()
	if err != nil {
		return nil, err
	}
	active, err := s.userRepo.CountActive()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	week, err := s.userRepo.CountCreatedSince(now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	month, err := s.userRepo.CountCreatedSince(now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	byRole, err := s.userRepo.CountByRole()
	if err != nil {
		return nil, err
	}
	byPlan, err := s.userRepo.CountByPlan()
	if err != nil {
		return nil, err
	}

	return &UserStatistics{
		TotalUsers:   total,
		ActiveUsers:  active,
		NewThisWeek:  week,
		NewThisMonth: month,
		ByRole:       byRole,
		ByPlan:       byPlan,
	}, nil
}

func (s *userService) CreateUser(req *dto.CreateUserRequest) (*models.User, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:            req.Email,
		Name:             req.Name,
		Password:         hashed,
		Role:             req.Role,
		SubscriptionPlan: req.SubscriptionPlan,
		IsActive:         true,
	}
	if user.Role == "" {
		user.Role = "user"
	}
	if user.SubscriptionPlan == "" {
		user.SubscriptionPlan = "free"
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	s.logger.Info("user created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

func (s *userService) UpdateUser(id string, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.userRepo.FindByEmail(*req.Email); err == nil {
			return nil, ErrEmailTaken
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.SubscriptionPlan != nil {
		user.SubscriptionPlan = *req.SubscriptionPlan
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeactivateUser soft deletes: the account is flagged inactive, the row and
// its payment history stay.
func (s *userService) DeactivateUser(id string) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return ErrUserDeactivated
	}
	if err := s.userRepo.Deactivate(id); err != nil {
		return err
	}
	s.logger.Info("user deactivated", "user_id", id)
	return nil
}

func (s *userService) BulkUpdateUsers(req *dto.BulkUpdateUsersRequest) (int64, error) {
	updates := map[string]any{}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.SubscriptionPlan != nil {
		updates["subscription_plan"] = *req.SubscriptionPlan
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return 0, ErrNoUpdateFields
	}

	affected, err := s.userRepo.BulkUpdate(req.UserIDs, updates)
	if err != nil {
		return 0, err
	}
	s.logger.Info("bulk user update", "requested", len(req.UserIDs), "updated", affected)
	return affected, nil
}
