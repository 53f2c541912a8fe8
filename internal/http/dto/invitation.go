package dto

import (
	"time"

	"cerium.app/cerium/internal/model"
)

type CreateInvitationRequest struct {
	Email    string `json:"email" binding:"required,email"`
	TeamName string `json:"team_name" binding:"required,min=1,max=255"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

type InvitationResponse struct {
	ID         int64      `json:"id,string"`
	Email      string     `json:"email"`
	Status     string     `json:"status"`
	InvitedBy  *int64     `json:"invited_by,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

type CreateInvitationResponse struct {
	Invitation InvitationResponse `json:"invitation"`
	InviteLink string             `json:"invite_link"`
}

func ToInvitationResponse(inv *model.Invitation) *InvitationResponse {
	return &InvitationResponse{
		ID:         inv.ID,
		Email:      inv.Email,
		Status:     string(inv.Status),
		InvitedBy:  inv.InvitedBy,
		ExpiresAt:  inv.ExpiresAt,
		CreatedAt:  inv.CreatedAt,
		AcceptedAt: inv.AcceptedAt,
	}
}

func ToInvitationResponses(invs []model.Invitation) []InvitationResponse {
	out := make([]InvitationResponse, len(invs))
	for i := range invs {
		out[i] = *ToInvitationResponse(&invs[i])
	}
	return out
}
