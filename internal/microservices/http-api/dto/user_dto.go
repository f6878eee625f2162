package dto

import "patentadmin/internal/microservices/http-api/models"

type CreateUserRequest struct {
	Email            string `json:"email" binding:"required,email"`
	Name             string `json:"name" binding:"required"`
	Password         string `json:"password" binding:"required,min=8"`
	Role             string `json:"role"`
	SubscriptionPlan string `json:"subscription_plan"`
	IsActive         *bool  `json:"is_active"`
}

// UpdateUserRequest uses pointers so absent fields are left untouched.
type UpdateUserRequest struct {
	Email            *string `json:"email"`
	Name             *string `json:"name"`
	Password         *string `json:"password"`
	Role             *string `json:"role"`
	SubscriptionPlan *string `json:"subscription_plan"`
	IsActive         *bool   `json:"is_active"`
}

type BulkUpdateUsersRequest struct {
	UserIDs          []string `json:"user_ids" binding:"required,min=1"`
	Role             *string  `json:"role"`
	SubscriptionPlan *string  `json:"subscription_plan"`
	IsActive         *bool    `json:"is_active"`
}

type UserListResponse struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Size  int           `json:"size"`
}
