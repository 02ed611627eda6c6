package out

import (
	"context"

	"golang.org/x/oauth2"
)

// =============================================================================
// Provider Factory
// =============================================================================

// ProviderFactory creates per-user provider instances from an OAuth token.
type ProviderFactory interface {
	CreateMailProvider(ctx context.Context, token *oauth2.Token) (MailProviderPort, error)
	CreateCalendarProvider(ctx context.Context, token *oauth2.Token) (CalendarProviderPort, error)
}
