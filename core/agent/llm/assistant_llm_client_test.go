package llm

import (
	"testing"
	"time"
)

func TestAPIHTTPClientUsesConfiguredTimeout(t *testing.T) {
	c := apiHTTPClient(5 * time.Second)
	if c.Timeout != 5*time.Second {
		t.Errorf("expected 5s client timeout, got %s", c.Timeout)
	}
}

func TestAPIHTTPClientDefaultsToBoundedTimeout(t *testing.T) {
	c := apiHTTPClient(0)
	if c.Timeout <= 0 {
		t.Error("expected a bounded default timeout, got none")
	}
}
