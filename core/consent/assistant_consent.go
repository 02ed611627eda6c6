// Package consent issues and validates scoped consent tokens. Every
// orchestration run presents a token before any provider call; knowledge
// base reads require a second, short-lived token.
package consent

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Consent scopes.
const (
	ScopeEmailRead         = "vault.read.email"
	ScopeKnowledgeBaseRead = "knowledge.base.read"
)

// Claims are the JWT claims carried by a consent token.
type Claims struct {
	UserEmail string `json:"user_email"`
	Scope     string `json:"scope"`
	AgentID   string `json:"agent_id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies consent tokens with a shared HMAC secret.
type Manager struct {
	secret  []byte
	agentID string
}

// NewManager creates a consent token manager.
func NewManager(secret, agentID string) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("consent secret not configured")
	}
	return &Manager{secret: []byte(secret), agentID: agentID}, nil
}

// Issue signs a consent token granting scope to agentID on behalf of userEmail.
func (m *Manager) Issue(userEmail, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserEmail: userEmail,
		Scope:     scope,
		AgentID:   m.agentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses a token and checks its signature, expiry, scope, and
// user binding. Returns the verified claims.
func (m *Manager) Validate(tokenString, wantScope, wantUserEmail string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("consent token invalid: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("consent token invalid")
	}
	if claims.Scope != wantScope {
		return nil, fmt.Errorf("consent scope mismatch: have %q, need %q", claims.Scope, wantScope)
	}
	if wantUserEmail != "" && claims.UserEmail != wantUserEmail {
		return nil, fmt.Errorf("consent token issued for a different user")
	}
	return claims, nil
}
