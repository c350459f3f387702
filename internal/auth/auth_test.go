package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/sandeepkv93/contravault/internal/storage"
)

func newTestIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	iss, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	iss.now = func() time.Time { return now }
	return iss
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)
	token, expires, err := iss.Issue("u1", "a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", expires)
	}
	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "a@example.com" || claims.Subject != "u1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)
	token, _, err := iss.Issue("u1", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	later := newTestIssuer(t, now.Add(2*time.Hour))
	if _, err := later.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}

	other, err := NewIssuer("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected wrong secret to fail, got %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := iss.Verify(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none to fail, got %v", err)
	}
}

func TestNewIssuerValidates(t *testing.T) {
	if _, err := NewIssuer(" ", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected missing secret, got %v", err)
	}
	if _, err := NewIssuer("s", 0); err == nil {
		t.Fatalf("expected ttl error")
	}
}

func TestResolverSources(t *testing.T) {
	iss := newTestIssuer(t, time.Now())
	token, _, _ := iss.Issue("u1", "")
	r := NewResolver(iss, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := r.Resolve(req); got != "" {
		t.Fatalf("expected anonymous, got %q", got)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if got := r.Resolve(req); got != "u1" {
		t.Fatalf("bearer: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token})
	if got := r.Resolve(req); got != "u1" {
		t.Fatalf("cookie: got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic "+token)
	if got := r.Resolve(req); got != "" {
		t.Fatalf("basic scheme must not authenticate, got %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	iss := newTestIssuer(t, time.Now())
	token, _, _ := iss.Issue("u1", "")
	r := NewResolver(iss, "")

	router := gin.New()
	router.GET("/me", r.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("expected 401 envelope, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u1" {
		t.Fatalf("expected user id, got %d %s", rec.Code, rec.Body.String())
	}
}

func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/oauth2/v2/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"email": "Ada@Example.com", "name": "Ada", "picture": "https://img/ada.png"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogle(t *testing.T) (*Google, *Resolver) {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	srv := fakeGoogle(t)
	resolver := NewResolver(newTestIssuer(t, time.Now()), "")
	g, err := NewGoogle(GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"}, repo, resolver)
	if err != nil {
		t.Fatalf("new google: %v", err)
	}
	g.oauth.Endpoint.AuthURL = srv.URL + "/auth"
	g.oauth.Endpoint.TokenURL = srv.URL + "/token"
	g.oauth.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	g.apiEndpoint = srv.URL + "/"
	return g, resolver
}

func TestGoogleExchangeUpsertsUser(t *testing.T) {
	g, resolver := newTestGoogle(t)
	ctx := context.Background()
	first, token, err := g.Exchange(ctx, "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if first.Email != "ada@example.com" || first.Name != "Ada" || first.Theme != "auto" {
		t.Fatalf("unexpected user: %+v", first)
	}
	claims, err := resolver.issuer.Verify(token)
	if err != nil || claims.UserID != first.ID {
		t.Fatalf("token does not identify the user: %+v %v", claims, err)
	}

	second, _, err := g.Exchange(ctx, "good-code")
	if err != nil {
		t.Fatalf("second exchange: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat sign-in must keep the user id: %s != %s", second.ID, first.ID)
	}

	if _, _, err := g.Exchange(ctx, "bad-code"); err == nil {
		t.Fatalf("expected exchange failure")
	}
}

func TestGoogleLoginAndCallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g, resolver := newTestGoogle(t)
	router := gin.New()
	router.GET("/login", g.Login)
	router.GET("/callback", g.Callback)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" || loc.Query().Get("client_id") != "id" {
		t.Fatalf("unexpected auth url: %s", loc)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/callback?code=good-code&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected state mismatch, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/callback?code=good-code&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected success, got %d %s", rec.Code, rec.Body.String())
	}
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == resolver.CookieName() {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatalf("expected session cookie")
	}
	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(session)
	if resolver.Resolve(check) == "" {
		t.Fatalf("session cookie does not resolve to a user")
	}
}
