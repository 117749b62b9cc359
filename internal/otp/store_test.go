package otp

import (
	"testing"
	"time"
)

func TestPutAndGet(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a@example.com", "123456")

	code, ok := s.Get("a@example.com")
	if !ok {
		t.Fatalf("expected code to be present")
	}
	if code != "123456" {
		t.Fatalf("expected 123456, got %q", code)
	}
}

func TestGet_UnknownEmail(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.Get("nobody@example.com"); ok {
		t.Fatalf("expected no code for unknown email")
	}
}

func TestPutOverwritesPreviousCode(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a@example.com", "111111")
	s.Put("a@example.com", "222222")

	code, ok := s.Get("a@example.com")
	if !ok || code != "222222" {
		t.Fatalf("expected latest code 222222, got %q (ok=%v)", code, ok)
	}
}

func TestDelete(t *testing.T) {
	s := NewMemoryStore()
	s.Put("a@example.com", "123456")
	s.Delete("a@example.com")

	if _, ok := s.Get("a@example.com"); ok {
		t.Fatalf("expected code to be gone after delete")
	}
}

func TestExpiry(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now()
	s.now = func() time.Time { return base }

	s.Put("a@example.com", "123456")

	// Just inside the window
	s.now = func() time.Time { return base.Add(TTL - time.Second) }
	if _, ok := s.Get("a@example.com"); !ok {
		t.Fatalf("code should still be valid inside the TTL")
	}

	// Just past the window
	s.now = func() time.Time { return base.Add(TTL + time.Second) }
	if _, ok := s.Get("a@example.com"); ok {
		t.Fatalf("code should be expired past the TTL")
	}

	// Expired entries are removed on lookup, not resurrected
	s.now = func() time.Time { return base }
	if _, ok := s.Get("a@example.com"); ok {
		t.Fatalf("expired code must not come back")
	}
}
