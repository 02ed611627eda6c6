// Package provider implements Google provider adapters and their factory.
package provider

import (
	"context"

	"assistant_server/adapter/out/provider/calendar"
	"assistant_server/adapter/out/provider/gmail"
	"assistant_server/core/port/out"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	gmailapi "google.golang.org/api/gmail/v1"
)

// =============================================================================
// Provider Factory
// =============================================================================

// GoogleConfig holds Google OAuth configuration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Factory creates per-user Gmail and Calendar providers.
type Factory struct {
	oauthConfig *oauth2.Config
}

// NewFactory creates a provider factory.
func NewFactory(cfg *GoogleConfig) *Factory {
	return &Factory{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				gmailapi.GmailModifyScope,
				gcal.CalendarScope,
			},
		},
	}
}

// OAuthConfig exposes the shared OAuth configuration for the auth flow.
func (f *Factory) OAuthConfig() *oauth2.Config {
	return f.oauthConfig
}

// CreateMailProvider binds a Gmail provider to one user's token.
func (f *Factory) CreateMailProvider(ctx context.Context, token *oauth2.Token) (out.MailProviderPort, error) {
	return gmail.NewProvider(ctx, token, f.oauthConfig)
}

// CreateCalendarProvider binds a Calendar provider to one user's token.
func (f *Factory) CreateCalendarProvider(ctx context.Context, token *oauth2.Token) (out.CalendarProviderPort, error) {
	return calendar.NewProvider(ctx, token, f.oauthConfig)
}

// Ensure Factory implements out.ProviderFactory
var _ out.ProviderFactory = (*Factory)(nil)
