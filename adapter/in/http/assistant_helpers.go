package http

import (
	"io"
	"time"

	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/crypto"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
)

// maxUploadBytes caps uploaded document/KB file size (10 MiB).
const maxUploadBytes = 10 << 20

// UserEmail extracts the acting user's email from form, query, or JSON body.
func UserEmail(c *fiber.Ctx) (string, error) {
	if email := c.FormValue("user_email"); email != "" {
		return email, nil
	}
	if email := c.Query("user_email"); email != "" {
		return email, nil
	}
	var body struct {
		UserEmail string `json:"user_email"`
	}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &body); err == nil && body.UserEmail != "" {
			return body.UserEmail, nil
		}
	}
	return "", apperr.MissingField("user_email")
}

// FormFileAttachment reads an optional multipart file field into an attachment.
// Returns nil when the field is absent.
func FormFileAttachment(c *fiber.Ctx, field string) (*domain.Attachment, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	if fh.Size > maxUploadBytes {
		return nil, apperr.BadRequest("uploaded file exceeds size limit")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}
	if int64(len(content)) > maxUploadBytes {
		return nil, apperr.BadRequest("uploaded file exceeds size limit")
	}
	return &domain.Attachment{Filename: fh.Filename, Content: content}, nil
}

// GoogleProviders builds per-user Gmail and Calendar providers from the
// user's stored OAuth token.
type GoogleProviders struct {
	users     out.UserRepository
	factory   out.ProviderFactory
	encryptor *crypto.Encryptor
}

// NewGoogleProviders creates the per-request provider builder.
func NewGoogleProviders(users out.UserRepository, factory out.ProviderFactory, encryptor *crypto.Encryptor) *GoogleProviders {
	return &GoogleProviders{users: users, factory: factory, encryptor: encryptor}
}

// Token loads and decrypts the user's stored Google OAuth token.
func (g *GoogleProviders) Token(c *fiber.Ctx, userEmail string) (*oauth2.Token, error) {
	user, err := g.users.GetByEmail(c.Context(), userEmail)
	if err != nil {
		return nil, err
	}
	if len(user.GoogleToken) == 0 {
		return nil, apperr.Unauthorized("no Google account linked for this user")
	}

	plaintext, err := g.encryptor.Decrypt(string(user.GoogleToken))
	if err != nil {
		return nil, apperr.InvalidToken("stored Google token could not be decrypted")
	}

	var token oauth2.Token
	if err := json.Unmarshal(plaintext, &token); err != nil {
		return nil, apperr.InvalidToken("stored Google token is malformed")
	}
	return &token, nil
}

// Mail builds the user's Gmail provider.
func (g *GoogleProviders) Mail(c *fiber.Ctx, userEmail string) (out.MailProviderPort, error) {
	token, err := g.Token(c, userEmail)
	if err != nil {
		return nil, err
	}
	provider, err := g.factory.CreateMailProvider(c.Context(), token)
	if err != nil {
		return nil, apperr.ProviderFailure("gmail", err)
	}
	return provider, nil
}

// Calendar builds the user's Google Calendar provider.
func (g *GoogleProviders) Calendar(c *fiber.Ctx, userEmail string) (out.CalendarProviderPort, error) {
	token, err := g.Token(c, userEmail)
	if err != nil {
		return nil, err
	}
	provider, err := g.factory.CreateCalendarProvider(c.Context(), token)
	if err != nil {
		return nil, apperr.ProviderFailure("google_calendar", err)
	}
	return provider, nil
}

// EncodeToken serializes and encrypts an OAuth token for storage.
func (g *GoogleProviders) EncodeToken(token *oauth2.Token) ([]byte, error) {
	plaintext, err := json.Marshal(token)
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}
	encrypted, err := g.encryptor.Encrypt(plaintext)
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}
	return []byte(encrypted), nil
}

// expiryOrZero parses an RFC3339 expiry, tolerating absence.
func expiryOrZero(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
