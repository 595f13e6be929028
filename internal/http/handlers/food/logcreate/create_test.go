package logcreate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/habit-progression/internal/http/middlewarectx"
	"github.com/magabrotheeeer/habit-progression/internal/models"
	"github.com/magabrotheeeer/habit-progression/internal/services/activity"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) LogFood(ctx context.Context, userUID string, in models.DummyFoodLog) (*activity.FoodResult, error) {
	args := m.Called(ctx, userUID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activity.FoodResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestFoodLogCreateHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		userUID        string
		setupMocks     func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "success",
			body:    `{"food_name":"oats","calories":150,"meal_type":"breakfast"}`,
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("LogFood", mock.Anything, "uid-1", models.DummyFoodLog{FoodName: "oats", Calories: 150, MealType: "breakfast"}).
					Return(&activity.FoodResult{
						Entry:    models.FoodLog{ID: "f-1", MealType: "breakfast"},
						Progress: activity.Progress{XPAwarded: 15, Level: 1, XP: 15, XPToNextLevel: 500},
					}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown meal type",
			body:           `{"food_name":"oats","meal_type":"brunch"}`,
			userUID:        "uid-1",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"field MealType must be one of [breakfast lunch dinner snack]"}`,
		},
		{
			name:           "missing food name",
			body:           `{"calories":10}`,
			userUID:        "uid-1",
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"field FoodName is a required field"}`,
		},
		{
			name:           "missing user UID",
			body:           `{"food_name":"oats"}`,
			setupMocks:     func(*MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:    "user not found",
			body:    `{"food_name":"oats"}`,
			userUID: "uid-2",
			setupMocks: func(s *MockService) {
				s.On("LogFood", mock.Anything, "uid-2", mock.Anything).Return(nil, models.ErrUserNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"user not found"}`,
		},
		{
			name:    "service error",
			body:    `{"food_name":"oats"}`,
			userUID: "uid-1",
			setupMocks: func(s *MockService) {
				s.On("LogFood", mock.Anything, "uid-1", mock.Anything).Return(nil, errors.New("tx failed")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodPost, "/food/log", bytes.NewBufferString(tt.body))
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"xp_awarded":15`)
				assert.Contains(t, rec.Body.String(), `"id":"f-1"`)
			}
			svc.AssertExpectations(t)
		})
	}
}
