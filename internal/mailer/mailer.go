// Package mailer sends transactional email through Resend.
package mailer

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"cerium.app/cerium/core/config"
)

// Invitation carries everything the invite email template needs.
type Invitation struct {
	To                string
	InvitedByUsername string
	InvitedByEmail    string
	TeamName          string
	InviteLink        string
}

type Mailer interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}

type resendMailer struct {
	client *resend.Client
	from   string
}

func New(cfg config.ResendConfig) Mailer {
	return &resendMailer{
		client: resend.NewClient(cfg.APIKey),
		from:   cfg.From,
	}
}

func (m *resendMailer) SendInvitation(ctx context.Context, inv Invitation) error {
	subject := fmt.Sprintf("Join %s on Cerium", inv.TeamName)

	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{inv.To},
		Subject: subject,
		Html:    invitationHTML(inv),
	})
	if err != nil {
		return fmt.Errorf("sending invitation email: %w", err)
	}

	slog.InfoContext(ctx, "invitation email sent", "to", inv.To, "team", inv.TeamName)
	return nil
}

func invitationHTML(inv Invitation) string {
	return fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px;margin:0 auto">
  <h2>Join %s on Cerium</h2>
  <p>%s (%s) has invited you to the <strong>%s</strong> team.</p>
  <p><a href="%s" style="display:inline-block;padding:10px 20px;background:#000;color:#fff;border-radius:6px;text-decoration:none">Accept invitation</a></p>
  <p style="color:#666;font-size:12px">Or copy this link: %s</p>
</div>`,
		html.EscapeString(inv.TeamName),
		html.EscapeString(inv.InvitedByUsername),
		html.EscapeString(inv.InvitedByEmail),
		html.EscapeString(inv.TeamName),
		inv.InviteLink,
		html.EscapeString(inv.InviteLink),
	)
}

// Nop is used when Resend is not configured; invites are still created and
// the link is returned in the API response.
type Nop struct{}

func (Nop) SendInvitation(ctx context.Context, inv Invitation) error {
	slog.WarnContext(ctx, "mailer disabled, skipping invitation email", "to", inv.To)
	return nil
}
