package sdk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mindxandria/mindxandria-go/session"
)

func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".signature"
}

func writeTokens(t *testing.T, w http.ResponseWriter, access, refresh string) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(map[string]string{
		"accessToken":  access,
		"refreshToken": refresh,
	}); err != nil {
		t.Fatalf("encode tokens: %v", err)
	}
}

func TestProactiveRefreshNearExpiry(t *testing.T) {
	fresh := makeToken(t, map[string]any{"sub": "me@example.com", "exp": time.Now().Add(time.Hour).Unix()})

	var refreshCalls, meCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refreshToken"] != "refresh-1" {
			t.Errorf("expected stored refresh token, got %q", body["refreshToken"])
		}
		writeTokens(t, w, fresh, "refresh-2")
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls++
		if got := r.Header.Get("Authorization"); got != "Bearer "+fresh {
			t.Errorf("expected renewed bearer token, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(User{ID: "u1", Name: "Reader", Email: "me@example.com"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	expiring := makeToken(t, map[string]any{"exp": time.Now().Add(30 * time.Second).Unix()})
	client.TokenStore().SetTokens(expiring, "refresh-1")

	user, err := client.Users.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.Email != "me@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if refreshCalls != 1 {
		t.Fatalf("expected 1 refresh call, got %d", refreshCalls)
	}
	if meCalls != 1 {
		t.Fatalf("expected 1 profile call, got %d", meCalls)
	}
	if got := client.TokenStore().RefreshToken(); got != "refresh-2" {
		t.Fatalf("expected rotated refresh token, got %q", got)
	}
}

func TestNoProactiveRefreshForFreshToken(t *testing.T) {
	var refreshCalls int
	valid := makeToken(t, map[string]any{"exp": time.Now().Add(5 * time.Minute).Unix()})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		writeTokens(t, w, valid, "refresh-2")
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+valid {
			t.Errorf("expected original bearer token, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(User{ID: "u1", Email: "me@example.com"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.TokenStore().SetTokens(valid, "refresh-1")

	if _, err := client.Users.Me(context.Background()); err != nil {
		t.Fatalf("me: %v", err)
	}
	if refreshCalls != 0 {
		t.Fatalf("expected no refresh, got %d calls", refreshCalls)
	}
}

func TestReissueOnceAfter401(t *testing.T) {
	stale := makeToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})
	fresh := makeToken(t, map[string]any{"exp": time.Now().Add(2 * time.Hour).Unix()})

	var refreshCalls, bookCalls int
	var requestIDs []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		writeTokens(t, w, fresh, "refresh-2")
	})
	mux.HandleFunc("GET /books", func(w http.ResponseWriter, r *http.Request) {
		bookCalls++
		requestIDs = append(requestIDs, r.Header.Get("X-Request-Id"))
		if bookCalls == 1 {
			http.Error(w, "token revoked", http.StatusUnauthorized)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+fresh {
			t.Errorf("reissue must carry the renewed token, got %q", got)
		}
		_ = json.NewEncoder(w).Encode([]Book{{ID: "b1", Name: "Dune"}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.TokenStore().SetTokens(stale, "refresh-1")

	books, err := client.Books.Mine(context.Background())
	if err != nil {
		t.Fatalf("mine: %v", err)
	}
	if len(books) != 1 || books[0].Name != "Dune" {
		t.Fatalf("unexpected books: %+v", books)
	}
	if bookCalls != 2 {
		t.Fatalf("expected original + exactly one reissue, got %d calls", bookCalls)
	}
	if refreshCalls != 1 {
		t.Fatalf("expected 1 refresh call, got %d", refreshCalls)
	}
	if len(requestIDs) != 2 || requestIDs[0] == "" || requestIDs[0] != requestIDs[1] {
		t.Fatalf("reissue must reuse the request id, got %v", requestIDs)
	}
}

func TestNoReissueWhileRefreshInFlight(t *testing.T) {
	valid := makeToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})
	fresh := makeToken(t, map[string]any{"exp": time.Now().Add(2 * time.Hour).Unix()})

	var refreshCalls, bookCalls int
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		<-release
		writeTokens(t, w, fresh, "refresh-2")
	})
	mux.HandleFunc("GET /books", func(w http.ResponseWriter, r *http.Request) {
		bookCalls++
		http.Error(w, "token revoked", http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.TokenStore().SetTokens(valid, "refresh-1")

	// Park a refresh on the blocked endpoint.
	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		_, _ = client.Session().EnsureFresh(context.Background())
	}()
	deadline := time.Now().Add(time.Second)
	for !client.Session().Refreshing() {
		if time.Now().After(deadline) {
			t.Fatal("refresh never started")
		}
		time.Sleep(time.Millisecond)
	}

	// A 401 arriving now must come straight back instead of piling a second
	// refresh or a reissue onto the in-flight exchange.
	_, err = client.Books.Mine(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected the original 401, got %v", err)
	}
	if apiErr.Message != "token revoked" {
		t.Fatalf("expected verbatim body, got %q", apiErr.Message)
	}

	close(release)
	<-refreshDone

	if bookCalls != 1 {
		t.Fatalf("expected no reissue, got %d calls", bookCalls)
	}
	if refreshCalls != 1 {
		t.Fatalf("expected the parked refresh only, got %d calls", refreshCalls)
	}
}

func TestRefreshFailureAfter401(t *testing.T) {
	stale := makeToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})

	var bookCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "refresh token expired", http.StatusUnauthorized)
	})
	mux.HandleFunc("GET /books", func(w http.ResponseWriter, r *http.Request) {
		bookCalls++
		http.Error(w, "token revoked", http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	var redirected bool
	client, err := NewClient(Config{
		BaseURL:        server.URL,
		OnAuthRequired: func() { redirected = true },
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.TokenStore().SetTokens(stale, "refresh-1")

	_, err = client.Books.Mine(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected the original 401, got %v", err)
	}
	if apiErr.Message != "token revoked" {
		t.Fatalf("expected verbatim body, got %q", apiErr.Message)
	}
	if bookCalls != 1 {
		t.Fatalf("expected no reissue after failed refresh, got %d calls", bookCalls)
	}
	if !redirected {
		t.Fatal("expected OnAuthRequired hook to fire")
	}
	if client.TokenStore().AccessToken() != "" || client.TokenStore().RefreshToken() != "" {
		t.Fatal("expected cleared store after failed refresh")
	}
}

func TestIncompleteRefreshPairClearsStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":null,"refreshToken":null}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.TokenStore().SetTokens("access", "refresh")

	_, err = client.Session().EnsureFresh(context.Background())
	if !errors.Is(err, session.ErrIncompletePair) {
		t.Fatalf("expected ErrIncompletePair, got %v", err)
	}
	if got := client.TokenStore().AccessToken(); got != "" {
		t.Fatalf("expected cleared access token, got %q", got)
	}
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(Config{BaseURL: url})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	valid := makeToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})
	client.TokenStore().SetTokens(valid, "refresh-1")

	_, err = client.Books.Mine(context.Background())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestLoginStoresPair(t *testing.T) {
	access := makeToken(t, map[string]any{"sub": "me@example.com", "exp": time.Now().Add(time.Hour).Unix()})
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeTokens(t, w, access, "refresh-1")
	})
	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(User{ID: "u1", Name: "The Reader", Email: "me@example.com"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var changes int
	unsubscribe := client.TokenStore().Events().Subscribe(func(evt session.Event) {
		if evt == session.EventSessionChanged {
			changes++
		}
	})
	defer unsubscribe()

	if err := client.Auth.Login(context.Background(), "me@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := client.TokenStore().AccessToken(); got != access {
		t.Fatalf("expected stored access token, got %q", got)
	}
	if changes != 1 {
		t.Fatalf("expected one session-changed signal, got %d", changes)
	}

	state, identity := client.Auth.Session(context.Background())
	if state != session.StateAuthenticated {
		t.Fatalf("expected authenticated state, got %v", state)
	}
	if identity.Email != "me@example.com" || identity.Name != "The Reader" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestLoginRejectsIncompletePair(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":null,"refreshToken":null}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Auth.Login(context.Background(), "me@example.com", "secret"); err == nil {
		t.Fatal("expected error for incomplete pair")
	}
	if got := client.TokenStore().AccessToken(); got != "" {
		t.Fatalf("nothing may be stored, got %q", got)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://api.example.com/", want: "https://api.example.com"},
		{in: "https://api.example.com/base/", want: "https://api.example.com/base"},
		{in: "", wantErr: true},
		{in: "api.example.com", wantErr: true},
		{in: "https://", wantErr: true},
	}
	for _, tc := range cases {
		got, err := normalizeBaseURL(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("normalizeBaseURL(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("normalizeBaseURL(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
