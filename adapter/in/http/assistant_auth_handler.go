package http

import (
	"strings"
	"time"

	"assistant_server/core/consent"
	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/crypto"
	"assistant_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// AuthHandler handles signup, login, and Google token linking.
type AuthHandler struct {
	users      out.UserRepository
	consent    *consent.Manager
	providers  *GoogleProviders
	consentTTL time.Duration
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(users out.UserRepository, consentMgr *consent.Manager, providers *GoogleProviders, consentTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		users:      users,
		consent:    consentMgr,
		providers:  providers,
		consentTTL: consentTTL,
	}
}

// Register registers auth routes.
func (h *AuthHandler) Register(app *fiber.App) {
	auth := app.Group("/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)

	app.Post("/api/google-token", h.StoreGoogleToken)
}

// SignupRequest is the signup payload.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

// Signup creates a new account.
// POST /auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		return apperr.MissingField("email")
	}
	if req.Password == "" {
		return apperr.MissingField("password")
	}
	if req.Name == "" {
		return apperr.MissingField("name")
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return apperr.InternalWithError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		LinkedIn:     req.LinkedIn,
		GitHub:       req.GitHub,
	}
	if err := h.users.Create(c.Context(), user); err != nil {
		return err
	}

	return response.Created(c, fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues the email-read consent token the
// client must present on every processing request.
// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	user, err := h.users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return apperr.Unauthorized("invalid credentials")
		}
		return err
	}
	if !crypto.CheckPassword(user.PasswordHash, req.Password) {
		return apperr.Unauthorized("invalid credentials")
	}

	token, err := h.consent.Issue(user.Email, consent.ScopeEmailRead, h.consentTTL)
	if err != nil {
		return apperr.InternalWithError(err)
	}

	return response.OK(c, fiber.Map{
		"consent_token": token,
		"expires_in":    int(h.consentTTL.Seconds()),
		"user": fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"linkedin": user.LinkedIn,
			"github":   user.GitHub,
		},
	})
}

// GoogleTokenRequest carries an externally obtained Google OAuth token.
type GoogleTokenRequest struct {
	UserEmail    string `json:"user_email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Expiry       string `json:"expiry"`
}

// StoreGoogleToken encrypts and stores the user's Google OAuth token. Tokens
// are obtained out of band; this service never runs a browser flow.
// POST /api/google-token
func (h *AuthHandler) StoreGoogleToken(c *fiber.Ctx) error {
	var req GoogleTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if req.UserEmail == "" {
		return apperr.MissingField("user_email")
	}
	if req.AccessToken == "" && req.RefreshToken == "" {
		return apperr.MissingField("access_token")
	}
	if req.TokenType == "" {
		req.TokenType = "Bearer"
	}

	token := &oauth2.Token{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		TokenType:    req.TokenType,
		Expiry:       expiryOrZero(req.Expiry),
	}

	encrypted, err := h.providers.EncodeToken(token)
	if err != nil {
		return err
	}
	if err := h.users.UpdateGoogleToken(c.Context(), req.UserEmail, encrypted); err != nil {
		return err
	}

	return response.OK(c, fiber.Map{"linked": true})
}
