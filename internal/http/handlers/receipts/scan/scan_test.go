package scan

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pantrypilot/pantry-tracker/internal/http/middlewarectx"
	"github.com/pantrypilot/pantry-tracker/internal/models"
	receiptservice "github.com/pantrypilot/pantry-tracker/internal/services/receipt"
)

// MockService реализует интерфейс scan.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Scan(ctx context.Context, userUID string, req models.DummyReceipt) (string, error) {
	args := m.Called(ctx, userUID, req)
	return args.String(0), args.Error(1)
}

func TestScanHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validBody := `{
		"store_name": "SuperMart",
		"purchase_date": "15-08-2026",
		"total_amount": 1250,
		"items": [{"name": "Milk", "quantity": 2, "unit_price": 625}]
	}`

	tests := []struct {
		name           string
		body           string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "успешное сканирование чека",
			body:    validBody,
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Scan", mock.Anything, "uid-1", mock.Anything).Return("receipt-1", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":"receipt-1"`,
		},
		{
			name:           "запрос без пользователя в контексте",
			body:           validBody,
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:           "некорректное тело запроса",
			body:           `{not json`,
			userUID:        "uid-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"failed to decode request"`,
		},
		{
			name:           "чек без позиций не проходит валидацию",
			body:           `{"store_name": "SuperMart", "purchase_date": "15-08-2026"}`,
			userUID:        "uid-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Items is a required field`,
		},
		{
			name:    "лимит сканирований исчерпан",
			body:    validBody,
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Scan", mock.Anything, "uid-1", mock.Anything).
					Return("", receiptservice.ErrScanLimitReached)
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedBody:   `"error":"receipt scan limit reached for current tier"`,
		},
		{
			name:    "слишком много позиций для тарифа",
			body:    validBody,
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Scan", mock.Anything, "uid-1", mock.Anything).
					Return("", receiptservice.ErrTooManyItems)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error":"too many items in receipt for current tier"`,
		},
		{
			name:    "ошибка сервиса сканирования",
			body:    validBody,
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Scan", mock.Anything, "uid-1", mock.Anything).
					Return("", errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not scan receipt"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/receipts/scan", strings.NewReader(tt.body))
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.User, tt.userUID))
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
