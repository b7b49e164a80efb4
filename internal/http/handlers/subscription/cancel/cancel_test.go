package cancel

import (
	"context"
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

func (m *MockService) Cancel(ctx context.Context, principal models.Principal, id string) (*models.Subscription, error) {
	args := m.Called(ctx, principal, id)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCancelHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	principal := models.Principal{ID: "u1"}

	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "cancelled",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, principal, "sub-1").
					Return(&models.Subscription{ID: "sub-1", Status: models.StatusCancelled}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"cancelled"`,
		},
		{
			name: "already cancelled",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, principal, "sub-1").
					Return(nil, apperr.Conflict("subscription is already cancelled"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"message":"subscription is already cancelled"}`,
		},
		{
			name: "not owner",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, principal, "sub-1").Return(nil, apperr.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"success":false`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPut, "/subscriptions/sub-1/cancel", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "sub-1")
			req = req.WithContext(middlewarectx.WithPrincipal(context.WithValue(req.Context(), chi.RouteCtxKey, rctx), principal))

			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
