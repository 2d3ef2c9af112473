package control

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"turbodriver/internal/auth"
)

func TestAuthorizedAlwaysTrueWithNoBackingStore(t *testing.T) {
	a := newAuthConfig(nil, nil, 0)
	r := httptest.NewRequest(http.MethodGet, "/ws/runs/x", nil)
	if !a.authorized(r) {
		t.Fatalf("expected open access when no store/db is configured")
	}
}

func TestAuthorizedRejectsMissingToken(t *testing.T) {
	store := auth.NewInMemoryStore()
	a := newAuthConfig(store, nil, 0)
	r := httptest.NewRequest(http.MethodGet, "/ws/runs/x", nil)
	if a.authorized(r) {
		t.Fatalf("expected rejection without a token")
	}
}

func TestAuthorizedAcceptsValidBearerToken(t *testing.T) {
	store := auth.NewInMemoryStore()
	ident := store.Register(0)
	a := newAuthConfig(store, nil, 0)

	r := httptest.NewRequest(http.MethodGet, "/ws/runs/x", nil)
	r.Header.Set("Authorization", "Bearer "+ident.Token)
	if !a.authorized(r) {
		t.Fatalf("expected acceptance for a valid token")
	}
}

func TestAuthorizedAcceptsQueryParamToken(t *testing.T) {
	store := auth.NewInMemoryStore()
	ident := store.Register(0)
	a := newAuthConfig(store, nil, 0)

	r := httptest.NewRequest(http.MethodGet, "/ws/runs/x?token="+ident.Token, nil)
	if !a.authorized(r) {
		t.Fatalf("expected acceptance for a token passed via query parameter")
	}
}

func TestAuthorizedRejectsExpiredToken(t *testing.T) {
	store := auth.NewInMemoryStore()
	ident := store.Register(time.Nanosecond)
	time.Sleep(time.Millisecond)
	a := newAuthConfig(store, nil, 0)

	r := httptest.NewRequest(http.MethodGet, "/ws/runs/x?token="+ident.Token, nil)
	if a.authorized(r) {
		t.Fatalf("expected rejection for an expired token")
	}
}

func TestMiddlewarePassesThroughWithoutStore(t *testing.T) {
	a := newAuthConfig(nil, nil, 0)
	called := false
	h := a.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatalf("expected inner handler to be called when no store is configured")
	}
}

func TestMiddlewareRejectsMissingTokenWith401(t *testing.T) {
	store := auth.NewInMemoryStore()
	a := newAuthConfig(store, nil, 0)
	h := a.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("inner handler should not be reached")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareRejectsInvalidTokenWith403(t *testing.T) {
	store := auth.NewInMemoryStore()
	a := newAuthConfig(store, nil, 0)
	h := a.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("inner handler should not be reached")
	}))
	r := httptest.NewRequest(http.MethodGet, "/?token=bogus", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestMiddlewareAttachesIdentityToContext(t *testing.T) {
	store := auth.NewInMemoryStore()
	ident := store.Register(0)
	a := newAuthConfig(store, nil, 0)

	var gotID string
	h := a.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFromContext(r.Context())
		if ok {
			gotID = id.ID
		}
	}))
	r := httptest.NewRequest(http.MethodGet, "/?token="+ident.Token, nil)
	h.ServeHTTP(httptest.NewRecorder(), r)
	if gotID != ident.ID {
		t.Fatalf("identity in context = %q, want %q", gotID, ident.ID)
	}
}

func TestParseTokenPrefersBearerHeaderOverQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?token=fromquery", nil)
	r.Header.Set("Authorization", "Bearer fromheader")
	if got := parseToken(r); got != "fromheader" {
		t.Fatalf("parseToken = %q, want %q", got, "fromheader")
	}
}

func TestParseTokenFallsBackToQueryParam(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?token=fromquery", nil)
	if got := parseToken(r); got != "fromquery" {
		t.Fatalf("parseToken = %q, want %q", got, "fromquery")
	}
}

func TestParseTokenEmptyWhenNeitherPresent(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := parseToken(r); got != "" {
		t.Fatalf("parseToken = %q, want empty", got)
	}
}
