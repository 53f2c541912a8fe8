package dto

import (
	"time"

	"cerium.app/cerium/internal/model"
)

type UpdateUserRequest struct {
	Name      string  `json:"name" binding:"required,min=1,max=255"`
	AvatarURL *string `json:"avatar_url,omitempty" binding:"omitempty,url"`
}

type UserResponse struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}
}
