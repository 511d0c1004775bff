package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/playgeo/geohunt/internal/auth"
	"github.com/playgeo/geohunt/internal/database"
	"github.com/playgeo/geohunt/internal/game"
	"github.com/playgeo/geohunt/internal/migrations"
	"github.com/playgeo/geohunt/internal/oracle"
	"github.com/playgeo/geohunt/internal/search"
)

// Secret coordinate seeded into test phases, with guesses just inside and
// well outside the answer radius.
const (
	testLat     = 37.5665
	testLng     = 126.9780
	testNearLat = 37.5666
	testFarLat  = 37.5680
)

// stubOracle approves every coordinate, so phase creation succeeds on the
// first sample.
type stubOracle struct{}

func (stubOracle) IsLand(context.Context, float64, float64) (bool, error) { return true, nil }
func (stubOracle) HasStreetLevelImagery(context.Context, float64, float64) (bool, error) {
	return true, nil
}
func (stubOracle) NearestPano(context.Context, float64, float64) (*oracle.PanoInfo, error) {
	return &oracle.PanoInfo{PanoID: "pano-test"}, nil
}
func (stubOracle) Describe(context.Context, float64, float64) (*oracle.LocationInfo, error) {
	return &oracle.LocationInfo{Country: "South Korea", Locality: "Jung-gu", PlaceTypes: []string{"route"}}, nil
}

type testEnv struct {
	router *chi.Mux
	store  game.Store
	auth   *auth.Service
	tokens *auth.Tokens
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := game.NewSQLiteStore(db)
	o := stubOracle{}
	finder := search.NewFinder(o, logger)
	broker := NewBroker()
	lifecycle := game.NewLifecycle(store, finder, o, logger, game.WithEvents(broker))
	submitter := game.NewSubmitter(store, lifecycle, logger)

	tokens := auth.NewTokens("test-secret", 15*time.Minute, time.Hour)
	authSvc := auth.NewService(store, tokens, logger)

	r := chi.NewRouter()
	addRoutes(r, Options{
		Logger:    logger,
		DB:        db,
		Store:     store,
		Auth:      authSvc,
		Lifecycle: lifecycle,
		Submitter: submitter,
		Broker:    broker,
	})

	return &testEnv{router: r, store: store, auth: authSvc, tokens: tokens}
}

// seedAccount creates a user directly and mints a token for it.
func (e *testEnv) seedAccount(t *testing.T, nickname, role string) (game.User, string) {
	t.Helper()
	u := game.User{
		ID:       uuid.NewString(),
		Email:    nickname + "@example.com",
		Nickname: nickname,
		Role:     role,
	}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	pair, err := e.tokens.Issue(u.ID, u.Role)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return u, pair.AccessToken
}

func (e *testEnv) seedActivePhase(t *testing.T) game.Phase {
	t.Helper()
	p := game.Phase{
		ID:       uuid.NewString(),
		Lat:      testLat,
		Lng:      testLng,
		HintText: "where the river meets stone",
		Status:   game.StatusActive,
	}
	if err := e.store.CreatePhase(context.Background(), p); err != nil {
		t.Fatalf("create phase: %v", err)
	}
	return p
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestSignupLoginMe(t *testing.T) {
	e := setupServer(t)

	w := e.do(t, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Email: "ace@example.com", Nickname: "ace", Password: "hunter2hunter2",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: status = %d: %s", w.Code, w.Body.String())
	}
	created := decode[AuthResponse](t, w)
	if created.AccessToken == "" || created.RefreshToken == "" {
		t.Fatal("signup should return a token pair")
	}

	w = e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "ace@example.com", Password: "hunter2hunter2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d: %s", w.Code, w.Body.String())
	}
	logged := decode[AuthResponse](t, w)

	w = e.do(t, http.MethodGet, "/api/auth/me", logged.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status = %d: %s", w.Code, w.Body.String())
	}
	me := decode[UserResponse](t, w)
	if me.Nickname != "ace" {
		t.Errorf("nickname = %q, want ace", me.Nickname)
	}
}

func TestSignupValidation(t *testing.T) {
	e := setupServer(t)

	w := e.do(t, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Email: "a@example.com", Nickname: "a", Password: "short",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decode[ErrorResponse](t, w)
	if resp.Error != kindValidation {
		t.Errorf("error kind = %q, want %q", resp.Error, kindValidation)
	}
}

func TestSignupDuplicateEmailConflict(t *testing.T) {
	e := setupServer(t)

	body := SignupRequest{Email: "a@example.com", Nickname: "a", Password: "password123"}
	if w := e.do(t, http.MethodPost, "/api/auth/signup", "", body); w.Code != http.StatusCreated {
		t.Fatalf("first signup: status = %d", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/api/auth/signup", "", body); w.Code != http.StatusConflict {
		t.Fatalf("second signup: status = %d, want 409", w.Code)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	e := setupServer(t)

	w := e.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email: "nobody@example.com", Password: "whatever",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	e := setupServer(t)

	w := e.do(t, http.MethodPost, "/api/auth/signup", "", SignupRequest{
		Email: "a@example.com", Nickname: "a", Password: "password123",
	})
	created := decode[AuthResponse](t, w)

	w = e.do(t, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: created.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d: %s", w.Code, w.Body.String())
	}
	refreshed := decode[AuthResponse](t, w)
	if refreshed.RefreshToken == created.RefreshToken {
		t.Error("refresh should rotate the refresh token")
	}

	w = e.do(t, http.MethodPost, "/api/auth/logout", "", RefreshRequest{RefreshToken: refreshed.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", w.Code)
	}

	// Access token cannot refresh.
	w = e.do(t, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: refreshed.AccessToken})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh with access token: status = %d, want 401", w.Code)
	}
}

func TestUnauthorizedAccess(t *testing.T) {
	e := setupServer(t)

	for _, path := range []string{"/api/auth/me", "/api/users/profile", "/api/users/stats"} {
		if w := e.do(t, http.MethodGet, path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want 401", path, w.Code)
		}
		if w := e.do(t, http.MethodGet, path, "bogus", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s with bad token: status = %d, want 401", path, w.Code)
		}
	}
}

func TestAdminRoutesForbiddenForPlayers(t *testing.T) {
	e := setupServer(t)
	_, token := e.seedAccount(t, "player", "user")

	w := e.do(t, http.MethodGet, "/api/admin/phases", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	resp := decode[ErrorResponse](t, w)
	if resp.Error != kindForbidden {
		t.Errorf("error kind = %q, want %q", resp.Error, kindForbidden)
	}
}
