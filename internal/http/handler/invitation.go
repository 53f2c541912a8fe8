package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cerium.app/cerium/internal/http/dto"
	"cerium.app/cerium/internal/http/middleware"
	"cerium.app/cerium/internal/service"
)

type InvitationHandler struct {
	invitationService service.InvitationService
}

func NewInvitationHandler(invitationService service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

func (h *InvitationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	var req dto.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inv, inviteLink, err := h.invitationService.Create(ctx, req.Email, user, req.TeamName)
	if err != nil {
		if errors.Is(err, service.ErrInvitePendingExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "a pending invitation already exists for this email"})
			return
		}
		slog.ErrorContext(ctx, "failed to create invitation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create invitation"})
		return
	}

	c.JSON(http.StatusCreated, dto.CreateInvitationResponse{
		Invitation: *dto.ToInvitationResponse(inv),
		InviteLink: inviteLink,
	})
}

func (h *InvitationHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	inv, err := h.invitationService.ValidateToken(ctx, token)
	if err != nil {
		h.writeInviteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationResponse(inv))
}

func (h *InvitationHandler) Accept(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	var req dto.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	inv, err := h.invitationService.Accept(ctx, req.Token, user)
	if err != nil {
		h.writeInviteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationResponse(inv))
}

func (h *InvitationHandler) Revoke(c *gin.Context) {
	ctx := c.Request.Context()

	invID, err := parseIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invitation id"})
		return
	}

	inv, err := h.invitationService.Revoke(ctx, invID)
	if err != nil {
		h.writeInviteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationResponse(inv))
}

func (h *InvitationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Query("status") == "pending" {
		invs, err := h.invitationService.ListPending(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list pending invitations", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invitations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationResponses(invs)})
		return
	}

	invs, err := h.invitationService.List(ctx, 100, 0)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list invitations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invitations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationResponses(invs)})
}

func (h *InvitationHandler) writeInviteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInviteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found", "code": "invite_not_found"})
	case errors.Is(err, service.ErrInviteExpired):
		c.JSON(http.StatusGone, gin.H{"error": "this invitation has expired", "code": "invite_expired"})
	case errors.Is(err, service.ErrInviteAlreadyUsed):
		c.JSON(http.StatusGone, gin.H{"error": "this invitation has already been used", "code": "invite_used"})
	case errors.Is(err, service.ErrInviteRevoked):
		c.JSON(http.StatusGone, gin.H{"error": "this invitation has been revoked", "code": "invite_revoked"})
	case errors.Is(err, service.ErrEmailMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "the email you signed in with doesn't match the invitation", "code": "email_mismatch"})
	default:
		slog.ErrorContext(c.Request.Context(), "invitation operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process invitation"})
	}
}
