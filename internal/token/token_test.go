package token

import (
	"testing"
	"time"
)

// newTestService creates a Service with a fixed secret and short-ish TTLs
// so tests are deterministic.
func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := New("test-secret-at-least-16-chars!!", 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNew_ShortSecret(t *testing.T) {
	_, err := New("short", time.Minute, time.Hour)
	if err == nil {
		t.Fatal("New() should reject secrets shorter than 16 chars")
	}
}

func TestNew_NonPositiveTTL(t *testing.T) {
	_, err := New("this-is-16-chars", 0, time.Hour)
	if err == nil {
		t.Fatal("New() should reject a zero access TTL")
	}
}

// =========================================================================
// ISSUE / VERIFY TESTS
// =========================================================================

func TestIssueVerify_RoundTrip(t *testing.T) {
	s := newTestService(t)

	kinds := []struct {
		name string
		kind Kind
	}{
		{"access", Access},
		{"refresh", Refresh},
		{"email verification", EmailVerification},
	}

	for _, tc := range kinds {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := s.Issue("user@example.com", tc.kind)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if tok == "" {
				t.Fatal("Issue() returned empty token")
			}

			subject, err := s.Verify(tok)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if subject != "user@example.com" {
				t.Errorf("Verify() subject = %q, want %q", subject, "user@example.com")
			}
		})
	}
}

func TestIssue_UnknownKind(t *testing.T) {
	s := newTestService(t)

	_, err := s.Issue("user@example.com", Kind(42))
	if err == nil {
		t.Fatal("Issue() should reject an unknown kind")
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	s := newTestService(t)

	tok, err := s.IssueWithTTL("user@example.com", -1*time.Second)
	if err != nil {
		t.Fatalf("IssueWithTTL() error = %v", err)
	}

	if _, err := s.Verify(tok); err == nil {
		t.Fatal("Verify() should reject an expired token")
	}
}

func TestVerify_ZeroTTLToken(t *testing.T) {
	s := newTestService(t)

	tok, err := s.IssueWithTTL("user@example.com", 0)
	if err != nil {
		t.Fatalf("IssueWithTTL() error = %v", err)
	}

	// exp == iat: already past by the time we verify
	if _, err := s.Verify(tok); err == nil {
		t.Fatal("Verify() should reject a zero-lifetime token")
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	s := newTestService(t)

	tok, _ := s.Issue("user@example.com", Access)
	tampered := tok[:len(tok)-3] + "xxx"

	if _, err := s.Verify(tampered); err == nil {
		t.Fatal("Verify() should reject a tampered token")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	s1, _ := New("correct-secret-32-chars-long!!!!", time.Minute, time.Hour)
	s2, _ := New("wrong-secret-32-chars-long!!!!!!", time.Minute, time.Hour)

	tok, _ := s1.Issue("user@example.com", Access)

	if _, err := s2.Verify(tok); err == nil {
		t.Fatal("Verify() should fail for a token signed with a different secret")
	}
}

func TestVerify_Garbage(t *testing.T) {
	s := newTestService(t)

	for _, bad := range []string{"", "not-a-jwt", "a.b.c.d"} {
		if _, err := s.Verify(bad); err == nil {
			t.Fatalf("Verify(%q) should return an error", bad)
		}
	}
}
