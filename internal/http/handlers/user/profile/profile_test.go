package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/apperr"
	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Profile(ctx context.Context, principal models.Principal, userID string) (*models.User, error) {
	args := m.Called(ctx, principal, userID)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestProfileHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	principal := models.Principal{ID: "u1"}

	tests := []struct {
		name           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
		notInBody      string
	}{
		{
			name:   "own profile",
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("Profile", mock.Anything, principal, "u1").
					Return(&models.User{ID: "u1", Name: "first user", Email: "first@example.com", PasswordHash: "secret-hash"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"email":"first@example.com"`,
			notInBody:      "secret-hash",
		},
		{
			name:   "someone else's profile",
			userID: "u2",
			setupMock: func(m *MockService) {
				m.On("Profile", mock.Anything, principal, "u2").
					Return(nil, fmt.Errorf("profile: %w", apperr.ErrForbidden))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"success":false`,
		},
		{
			name:   "user deleted",
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("Profile", mock.Anything, principal, "u1").
					Return(nil, fmt.Errorf("profile: %w", apperr.ErrUserNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"message":"User not found"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/users/"+tt.userID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.userID)
			req = req.WithContext(middlewarectx.WithPrincipal(context.WithValue(req.Context(), chi.RouteCtxKey, rctx), principal))

			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			if tt.notInBody != "" {
				assert.NotContains(t, w.Body.String(), tt.notInBody)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestProfileHandler_NoPrincipal(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockService := new(MockService)

	req := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
	w := httptest.NewRecorder()
	New(logger, mockService).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "Profile", mock.Anything, mock.Anything, mock.Anything)
}
