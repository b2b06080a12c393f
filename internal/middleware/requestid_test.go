package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

func runRequestID(t *testing.T, incoming string) (captured string, rec *httptest.ResponseRecorder) {
	t.Helper()

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(chimiddleware.RequestIDHeader, incoming)
	}

	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = chimiddleware.GetReqID(r.Context())
	}))
	h.ServeHTTP(rec, req)
	return captured, rec
}

func TestRequestIDGeneratesUUIDv4(t *testing.T) {
	captured, rec := runRequestID(t, "")

	if captured == "" {
		t.Fatal("expected a generated request ID")
	}
	parsed, err := uuid.Parse(captured)
	if err != nil {
		t.Fatalf("request ID %q is not a valid UUID: %v", captured, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected UUIDv4, got version %d", parsed.Version())
	}
	if header := rec.Header().Get(chimiddleware.RequestIDHeader); header != captured {
		t.Fatalf("expected response header %q, got %q", captured, header)
	}
}

func TestRequestIDPreservesValidIncomingHeader(t *testing.T) {
	captured, rec := runRequestID(t, "external-id")

	if captured != "external-id" {
		t.Fatalf("expected request ID to remain external-id, got %q", captured)
	}
	if header := rec.Header().Get(chimiddleware.RequestIDHeader); header != "external-id" {
		t.Fatalf("expected header external-id, got %q", header)
	}
}

func TestRequestIDReplacesInvalidHeader(t *testing.T) {
	for _, bad := range []string{
		"inject\nnewline",
		"null\x00byte",
		strings.Repeat("a", maxRequestIDLength+1),
	} {
		captured, _ := runRequestID(t, bad)
		if captured == bad {
			t.Fatalf("expected %q to be replaced", bad)
		}
		if _, err := uuid.Parse(captured); err != nil {
			t.Fatalf("expected a generated UUID, got %q: %v", captured, err)
		}
	}
}

func TestIsValidRequestID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"", false},
		{"abc123", true},
		{"ABC-xyz_123.456", true},
		{"with space", true},
		{strings.Repeat("a", maxRequestIDLength), true},
		{strings.Repeat("a", maxRequestIDLength+1), false},
		{"ctl\tchar", false},
		{"high\x80byte", false},
		{"del\x7fchar", false},
	}

	for _, tc := range tests {
		if got := isValidRequestID(tc.id); got != tc.valid {
			t.Errorf("isValidRequestID(%q) = %v, want %v", tc.id, got, tc.valid)
		}
	}
}
