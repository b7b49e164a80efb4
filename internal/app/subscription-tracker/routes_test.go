package subscriptiontracker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/config"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/handlers/subscription/health"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const testSecret = "routes-test-secret"

type fakeAuth struct {
	users map[string]models.Principal
}

func (f *fakeAuth) SignUp(_ context.Context, req models.SignUpRequest) (*models.AuthResult, error) {
	return &models.AuthResult{Token: "t", User: &models.User{ID: "new", Name: req.Name, Email: req.Email}}, nil
}

func (f *fakeAuth) SignIn(_ context.Context, _ models.SignInRequest) (*models.AuthResult, error) {
	return nil, apperr.ErrInvalidCredentials
}

func (f *fakeAuth) ResolvePrincipal(_ context.Context, id string) (models.Principal, error) {
	p, ok := f.users[id]
	if !ok {
		return models.Principal{}, apperr.ErrUnauthorized
	}
	return p, nil
}

func (f *fakeAuth) Profile(_ context.Context, principal models.Principal, userID string) (*models.User, error) {
	if userID != principal.ID {
		return nil, apperr.ErrForbidden
	}
	return &models.User{ID: principal.ID, Name: principal.Name, PasswordHash: "hash"}, nil
}

type fakeSubscriptions struct {
	lastPrincipal models.Principal
	lastID        string
}

func (f *fakeSubscriptions) Create(_ context.Context, p models.Principal, req models.CreateRequest) (*models.CreateResult, error) {
	f.lastPrincipal = p
	return &models.CreateResult{Subscription: &models.Subscription{ID: "s1", User: p.ID, Name: req.Name}}, nil
}

func (f *fakeSubscriptions) ListByOwner(_ context.Context, p models.Principal, userID string) ([]*models.Subscription, error) {
	f.lastPrincipal, f.lastID = p, userID
	if userID != p.ID {
		return nil, apperr.ErrForbidden
	}
	return []*models.Subscription{}, nil
}

func (f *fakeSubscriptions) Get(_ context.Context, p models.Principal, id string) (*models.Subscription, error) {
	f.lastPrincipal, f.lastID = p, id
	return nil, apperr.ErrNotFound
}

func (f *fakeSubscriptions) Edit(_ context.Context, p models.Principal, id string, _ models.EditRequest) (*models.Subscription, error) {
	f.lastPrincipal, f.lastID = p, id
	return &models.Subscription{ID: id, User: p.ID}, nil
}

func (f *fakeSubscriptions) Cancel(_ context.Context, p models.Principal, id string) (*models.Subscription, error) {
	f.lastPrincipal, f.lastID = p, id
	return &models.Subscription{ID: id, User: p.ID, Status: models.StatusCancelled}, nil
}

func (f *fakeSubscriptions) Delete(_ context.Context, p models.Principal, id string) (string, error) {
	f.lastPrincipal, f.lastID = p, id
	return id, nil
}

func newTestRouter(t *testing.T, checks map[string]health.Pinger) (http.Handler, *fakeSubscriptions) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	subs := &fakeSubscriptions{}

	r := chi.NewRouter()
	RegisterRoutes(r, logger, Deps{
		Auth:          &fakeAuth{users: map[string]models.Principal{"u1": {ID: "u1", Name: "first user"}}},
		Subscriptions: subs,
		Verifier:      jwt.NewVerifier(testSecret),
		Metrics:       metrics.New(reg),
		Gatherer:      reg,
		HealthChecks:  checks,
		RateLimit:     config.RateLimit{RPS: 1000, Burst: 1000},
	})
	return r, subs
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewMaker(testSecret, time.Hour).GenerateToken(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(h http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRoutes_ProtectedRequireToken(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/subscriptions"},
		{http.MethodGet, "/api/v1/users/u1"},
		{http.MethodGet, "/api/v1/subscriptions/user/u1"},
		{http.MethodGet, "/api/v1/subscriptions/s1"},
		{http.MethodPut, "/api/v1/subscriptions/s1"},
		{http.MethodPut, "/api/v1/subscriptions/s1/cancel"},
		{http.MethodDelete, "/api/v1/subscriptions/s1"},
	} {
		rr := do(h, tc.method, tc.path, "", "{}")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRoutes_UnknownUserToken(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := do(h, http.MethodGet, "/api/v1/subscriptions/s1", bearer(t, "ghost"), "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRoutes_PrincipalReachesService(t *testing.T) {
	h, subs := newTestRouter(t, nil)
	auth := bearer(t, "u1")

	rr := do(h, http.MethodPut, "/api/v1/subscriptions/s42/cancel", auth, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u1", subs.lastPrincipal.ID)
	assert.Equal(t, "s42", subs.lastID)

	rr = do(h, http.MethodGet, "/api/v1/subscriptions/user/u2", auth, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(h, http.MethodGet, "/api/v1/subscriptions/s1", auth, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(h, http.MethodDelete, "/api/v1/subscriptions/s7", auth, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "s7", subs.lastID)
}

func TestRoutes_AuthEndpointsAreOpen(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rr := do(h, http.MethodPost, "/api/v1/auth/sign-out", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(h, http.MethodPost, "/api/v1/auth/sign-in", "", `{"email":"a@b.co","password":"secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t, map[string]health.Pinger{
		"storage": func(context.Context) error { return nil },
	})

	rr := do(h, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])

	rr = do(h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "subscription_tracker_http_requests_total")
}

func TestRoutes_UserProfile(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	auth := bearer(t, "u1")

	rr := do(h, http.MethodGet, "/api/v1/users/u1", auth, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"u1"`)
	assert.NotContains(t, rr.Body.String(), "hash")

	rr = do(h, http.MethodGet, "/api/v1/users/u2", auth, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		rr = do(h, method, "/api/v1/users/u1", auth, "{}")
		assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rr.Code, method)
	}
}
