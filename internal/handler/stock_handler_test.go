package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"promotion/pkg/utils"
)

// MockStockService mock stock service
type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) Decrease(ctx context.Context, activityID, productID uint64, qty int) error {
	args := m.Called(ctx, activityID, productID, qty)
	return args.Error(0)
}

func (m *MockStockService) Increase(ctx context.Context, activityID, productID uint64, qty int) error {
	args := m.Called(ctx, activityID, productID, qty)
	return args.Error(0)
}

func (m *MockStockService) SetStock(ctx context.Context, activityID, productID uint64, qty int) error {
	args := m.Called(ctx, activityID, productID, qty)
	return args.Error(0)
}

func (m *MockStockService) BatchDecrease(ctx context.Context, activityID uint64, items map[uint64]int) error {
	args := m.Called(ctx, activityID, items)
	return args.Error(0)
}

func (m *MockStockService) BatchIncrease(ctx context.Context, activityID uint64, items map[uint64]int) error {
	args := m.Called(ctx, activityID, items)
	return args.Error(0)
}

func newStockRouter(handler *StockHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/activities/:id/stock/decrease", handler.Decrease)
	router.POST("/activities/:id/stock/increase", handler.Increase)
	router.POST("/activities/:id/stock/batch-decrease", handler.BatchDecrease)
	return router
}

func TestStockHandler_Decrease(t *testing.T) {
	t.Run("successful decrease", func(t *testing.T) {
		mockService := new(MockStockService)
		handler := NewStockHandler(mockService)
		router := newStockRouter(handler)

		mockService.On("Decrease", mock.Anything, uint64(1), uint64(100), 3).Return(nil)

		body, _ := json.Marshal(map[string]interface{}{"product_id": 100, "quantity": 3})
		req, _ := http.NewRequest("POST", "/activities/1/stock/decrease", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid activity id", func(t *testing.T) {
		mockService := new(MockStockService)
		handler := NewStockHandler(mockService)
		router := newStockRouter(handler)

		body, _ := json.Marshal(map[string]interface{}{"product_id": 100, "quantity": 3})
		req, _ := http.NewRequest("POST", "/activities/abc/stock/decrease", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("insufficient stock maps to conflict", func(t *testing.T) {
		mockService := new(MockStockService)
		handler := NewStockHandler(mockService)
		router := newStockRouter(handler)

		mockService.On("Decrease", mock.Anything, uint64(1), uint64(100), 5).
			Return(utils.ErrInsufficientStock)

		body, _ := json.Marshal(map[string]interface{}{"product_id": 100, "quantity": 5})
		req, _ := http.NewRequest("POST", "/activities/1/stock/decrease", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var response utils.Response
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, utils.CodeInsufficientStock, response.Code)

		mockService.AssertExpectations(t)
	})

	t.Run("missing payload", func(t *testing.T) {
		mockService := new(MockStockService)
		handler := NewStockHandler(mockService)
		router := newStockRouter(handler)

		req, _ := http.NewRequest("POST", "/activities/1/stock/decrease", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestStockHandler_BatchDecrease(t *testing.T) {
	mockService := new(MockStockService)
	handler := NewStockHandler(mockService)
	router := newStockRouter(handler)

	mockService.On("BatchDecrease", mock.Anything, uint64(1), map[uint64]int{100: 2, 200: 1}).Return(nil)

	body, _ := json.Marshal(map[string]interface{}{
		"items": map[string]int{"100": 2, "200": 1},
	})
	req, _ := http.NewRequest("POST", "/activities/1/stock/batch-decrease", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestStockHandler_IncreaseNotFound(t *testing.T) {
	mockService := new(MockStockService)
	handler := NewStockHandler(mockService)
	router := newStockRouter(handler)

	mockService.On("Increase", mock.Anything, uint64(1), uint64(404), 1).
		Return(utils.ErrProductNotFound)

	body, _ := json.Marshal(map[string]interface{}{"product_id": 404, "quantity": 1})
	req, _ := http.NewRequest("POST", "/activities/1/stock/increase", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}
