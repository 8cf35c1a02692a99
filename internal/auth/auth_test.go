package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the password")
	}
	if !h.Verify(hash, "s3cret") {
		t.Fatal("expected password to verify")
	}
	if h.Verify(hash, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
	if h.Verify("not-a-hash", "s3cret") || h.Verify("", "") {
		t.Fatal("malformed hashes must not verify")
	}
	if _, err := h.Hash(""); err == nil {
		t.Fatal("expected empty password rejected")
	}
}

func TestIssuerRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(Principal{SubjectID: "cand-1", Role: RoleCandidate, Email: "asha@example.com", InterviewID: "iv-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := issuer.Verify(token, RoleCandidate)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.SubjectID != "cand-1" || p.InterviewID != "iv-1" || p.Email != "asha@example.com" {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestIssuerRejectsWrongRole(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(Principal{SubjectID: "cand-1", Role: RoleCandidate})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(token, RoleAdmin); !errors.Is(err, ErrWrongRole) {
		t.Fatalf("expected ErrWrongRole, got %v", err)
	}
}

func TestIssuerRejectsExpired(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return start }
	token, err := issuer.Issue(Principal{SubjectID: "admin-1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	issuer.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := issuer.Verify(token, RoleAdmin); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestIssuerRejectsForeignSignature(t *testing.T) {
	token, err := NewIssuer("other-secret", time.Hour).Issue(Principal{SubjectID: "admin-1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewIssuer("test-secret", time.Hour).Verify(token, RoleAdmin); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := NewIssuer("test-secret", time.Hour).Verify("garbage", RoleAdmin); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewIssuer("test-secret", time.Hour)
	known := map[string]bool{"admin-1": true}
	lookup := func(_ context.Context, id string) error {
		if !known[id] {
			return errors.New("unknown subject")
		}
		return nil
	}

	router := gin.New()
	router.GET("/admin/ping", Middleware(issuer, RoleAdmin, lookup), func(c *gin.Context) {
		p, _ := PrincipalFrom(c)
		c.String(http.StatusOK, p.SubjectID)
	})

	adminToken, _ := issuer.Issue(Principal{SubjectID: "admin-1", Role: RoleAdmin})
	ghostToken, _ := issuer.Issue(Principal{SubjectID: "admin-2", Role: RoleAdmin})
	candToken, _ := issuer.Issue(Principal{SubjectID: "admin-1", Role: RoleCandidate})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"valid", "Bearer " + adminToken, http.StatusOK},
		{"deleted subject", "Bearer " + ghostToken, http.StatusUnauthorized},
		{"wrong role", "Bearer " + candToken, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Errorf("%s: expected %d, got %d (%s)", tc.name, tc.status, rec.Code, rec.Body.String())
		}
	}
}
