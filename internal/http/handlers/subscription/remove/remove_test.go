package remove

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

// MockService реализует интерфейс remove.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Delete(ctx context.Context, principal models.Principal, id string) (string, error) {
	args := m.Called(ctx, principal, id)
	return args.String(0), args.Error(1)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	principal := models.Principal{ID: "u1"}

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное удаление",
			id:   "sub-1",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, principal, "sub-1").Return("sub-1", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"data":{"id":"sub-1"},"message":"Subscription deleted successfully"}`,
		},
		{
			name: "чужая подписка",
			id:   "sub-2",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, principal, "sub-2").Return("", apperr.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"success":false,"message":"You are not the owner of this resource"}`,
		},
		{
			name: "подписка не найдена",
			id:   "missing",
			setupMock: func(m *MockService) {
				m.On("Delete", mock.Anything, principal, "missing").Return("", apperr.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"success":false,"message":"Subscription not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodDelete, "/subscriptions/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := middlewarectx.WithPrincipal(context.WithValue(req.Context(), chi.RouteCtxKey, rctx), principal)
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
