package consent

import (
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-secret", "test_agent")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestIssueAndValidate(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("user@example.com", ScopeEmailRead, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Validate(token, ScopeEmailRead, "user@example.com")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserEmail != "user@example.com" {
		t.Errorf("expected user email to round-trip, got %s", claims.UserEmail)
	}
	if claims.Scope != ScopeEmailRead {
		t.Errorf("expected scope %s, got %s", ScopeEmailRead, claims.Scope)
	}
	if claims.AgentID != "test_agent" {
		t.Errorf("expected agent ID test_agent, got %s", claims.AgentID)
	}
	if claims.ID == "" {
		t.Error("expected a token ID to be assigned")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("user@example.com", ScopeEmailRead, -time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.Validate(token, ScopeEmailRead, "user@example.com"); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidateScopeMismatch(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("user@example.com", ScopeEmailRead, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	_, err = m.Validate(token, ScopeKnowledgeBaseRead, "user@example.com")
	if err == nil {
		t.Fatal("expected scope mismatch to be rejected")
	}
	if !strings.Contains(err.Error(), "scope mismatch") {
		t.Errorf("expected scope mismatch error, got: %v", err)
	}
}

func TestValidateUserMismatch(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue("user@example.com", ScopeEmailRead, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.Validate(token, ScopeEmailRead, "other@example.com"); err == nil {
		t.Error("expected token bound to another user to be rejected")
	}
}

func TestValidateWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager("different-secret", "test_agent")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := m.Issue("user@example.com", ScopeEmailRead, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := other.Validate(token, ScopeEmailRead, "user@example.com"); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("", "agent"); err == nil {
		t.Error("expected empty secret to be rejected")
	}
}
