package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAllowList(t *testing.T) {
	list := NewAllowList([]string{"Ana@agency.pt", " rui@agency.pt ", ""})

	tests := []struct {
		email string
		want  bool
	}{
		{"ana@agency.pt", true},
		{"ANA@AGENCY.PT", true},
		{"rui@agency.pt", true},
		{"mallory@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := list.IsAuthorized(tt.email); got != tt.want {
			t.Errorf("IsAuthorized(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}

	if list.Len() != 2 {
		t.Errorf("Len() = %d, want 2", list.Len())
	}
}

func TestParseAllowList(t *testing.T) {
	list := ParseAllowList("ana@agency.pt,rui@agency.pt")
	if !list.IsAuthorized("rui@agency.pt") {
		t.Error("expected rui@agency.pt to be authorized")
	}
	if list.IsAuthorized("eve@agency.pt") {
		t.Error("expected eve@agency.pt to be rejected")
	}
}

func TestHTTPVerifier_Verify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q", r.URL.Path)
		}
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			w.Write([]byte(`{"id":"u1","email":"ana@agency.pt"}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	v := NewHTTPVerifier(server.URL, "anon-key")

	identity, err := v.Verify(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Email != "ana@agency.pt" {
		t.Errorf("Email = %q", identity.Email)
	}

	if _, err := v.Verify(context.Background(), "bad-token"); err != ErrInvalidToken {
		t.Errorf("Verify(bad) error = %v, want ErrInvalidToken", err)
	}
}
