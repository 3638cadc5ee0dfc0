package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fantadynasty/transfer-market/internal/domain/member"
	"github.com/fantadynasty/transfer-market/internal/usecase"
)

type stubVerifier struct {
	principal member.Principal
	err       error
}

func (v stubVerifier) VerifyAccessToken(_ context.Context, _ string) (member.Principal, error) {
	return v.principal, v.err
}

func TestRequireAuth_InjectsPrincipal(t *testing.T) {
	want := member.Principal{MemberID: "mbr-boca", LeagueID: "dynasty-serie-a-2026", Role: member.RoleManager}

	var got member.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = principalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(stubVerifier{principal: want}, next)

	req := httptest.NewRequest(http.MethodGet, "/v1/phase/status", nil)
	req.Header.Set("Authorization", "Bearer token-abc")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got != want {
		t.Fatalf("expected principal %+v, got %+v", want, got)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler should not run without credentials")
	})
	handler := RequireAuth(stubVerifier{}, next)

	req := httptest.NewRequest(http.MethodGet, "/v1/phase/status", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_VerifierRejects(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler should not run with a rejected token")
	})
	handler := RequireAuth(stubVerifier{err: usecase.ErrUnauthorized}, next)

	req := httptest.NewRequest(http.MethodGet, "/v1/phase/status", nil)
	req.Header.Set("Authorization", "Bearer token-expired")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAdmin_RejectsManager(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler should not run for a manager principal")
	})
	handler := RequireAdmin(next)

	req := httptest.NewRequest(http.MethodPost, "/v1/phase/advance", nil)
	ctx := withPrincipal(req.Context(), member.Principal{MemberID: "mbr-boca", Role: member.RoleManager})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req.WithContext(ctx))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAdmin(next)

	req := httptest.NewRequest(http.MethodPost, "/v1/phase/advance", nil)
	ctx := withPrincipal(req.Context(), member.Principal{MemberID: "mbr-admin", Role: member.RoleAdmin})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
