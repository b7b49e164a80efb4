package create

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, principal models.Principal, req models.CreateRequest) (*models.CreateResult, error) {
	args := m.Called(ctx, principal, req)
	if res := args.Get(0); res != nil {
		return res.(*models.CreateResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func newRequest(body string, principal *models.Principal) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
	if principal != nil {
		req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), *principal))
	}
	return req
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	principal := models.Principal{ID: "u1"}
	runID := "wfr_1"

	t.Run("created with run id", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Create", mock.Anything, principal, mock.MatchedBy(func(r models.CreateRequest) bool {
			return r.Name == "Netflix" && r.Price != nil && *r.Price == 15.99
		})).Return(&models.CreateResult{
			Subscription:  &models.Subscription{ID: "sub-1", User: "u1", Name: "Netflix", Status: models.StatusActive},
			WorkflowRunID: &runID,
		}, nil).Once()

		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, newRequest(`{"name":"Netflix","price":15.99}`, &principal))

		assert.Equal(t, http.StatusCreated, w.Code)
		var body struct {
			Success bool `json:"success"`
			Data    struct {
				Subscription  models.Subscription `json:"subscription"`
				WorkflowRunID *string             `json:"workflowRunId"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Equal(t, "sub-1", body.Data.Subscription.ID)
		require.NotNil(t, body.Data.WorkflowRunID)
		assert.Equal(t, runID, *body.Data.WorkflowRunID)
		svc.AssertExpectations(t)
	})

	t.Run("null run id outside production", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Create", mock.Anything, principal, mock.Anything).
			Return(&models.CreateResult{Subscription: &models.Subscription{ID: "sub-2"}}, nil).Once()

		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, newRequest(`{"name":"Netflix","price":1}`, &principal))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"workflowRunId":null`)
	})

	t.Run("validation error", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Create", mock.Anything, principal, mock.Anything).
			Return(nil, apperr.NewValidation("field price is a required field")).Once()

		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, newRequest(`{"name":"Netflix"}`, &principal))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"field price is a required field"}`, w.Body.String())
	})

	t.Run("invalid json", func(t *testing.T) {
		svc := new(MockService)
		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, newRequest(`not json`, &principal))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no principal", func(t *testing.T) {
		svc := new(MockService)
		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, newRequest(`{}`, nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}
