package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/yashrajoria/inventory-dashboard/services/common/errors"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/controllers"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/render"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/routes"
)

// ---- mocks ----

type mockDashboard struct {
	view render.Dashboard
}

func (m *mockDashboard) View() render.Dashboard { return m.view }

type mockStorefront struct {
	mountErr error
	view     render.Storefront
	buyErr   error
	bought   []models.BuyRequest
}

func (m *mockStorefront) Mount(context.Context) error { return m.mountErr }
func (m *mockStorefront) View() render.Storefront     { return m.view }
func (m *mockStorefront) Buy(_ context.Context, req models.BuyRequest) error {
	if m.buyErr != nil {
		return m.buyErr
	}
	m.bought = append(m.bought, req)
	return nil
}

// ---- helpers ----

func setupRouter(d controllers.DashboardViewer, s controllers.Storefront) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	routes.RegisterRoutes(r, controllers.NewDashboardController(d), controllers.NewStorefrontController(s))
	return r
}

func do(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---- tests ----

func TestHealth(t *testing.T) {
	r := setupRouter(&mockDashboard{}, &mockStorefront{})
	w := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownPath_NotFound(t *testing.T) {
	r := setupRouter(&mockDashboard{}, &mockStorefront{})
	w := do(r, http.MethodGet, "/admin/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"code":404,"message":"Not found"}`, w.Body.String())
}

func TestAdmin_Loading(t *testing.T) {
	d := &mockDashboard{view: render.Dashboard{Loading: true, Message: render.LoadingMessage, Cards: []render.Card{}}}
	r := setupRouter(d, &mockStorefront{})

	w := do(r, http.MethodGet, "/admin", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp render.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Loading)
	assert.Equal(t, render.LoadingMessage, resp.Message)
}

func TestAdmin_Cards(t *testing.T) {
	d := &mockDashboard{view: render.Dashboard{Cards: []render.Card{{SKU: "A", Stock: 3, Velocity: render.UnknownVelocity}}}}
	r := setupRouter(d, &mockStorefront{})

	w := do(r, http.MethodGet, "/admin", nil)

	var resp render.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Cards, 1)
	assert.Equal(t, "A", resp.Cards[0].SKU)
	assert.Equal(t, render.UnknownVelocity, resp.Cards[0].Velocity)
}

func TestAdminActivity(t *testing.T) {
	d := &mockDashboard{view: render.Dashboard{Activity: []models.SaleRecord{{SKU: "A", QuantitySold: 2}}}}
	r := setupRouter(d, &mockStorefront{})

	w := do(r, http.MethodGet, "/admin/activity", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Activity []models.SaleRecord `json:"activity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Activity, 1)
	assert.Equal(t, 2, resp.Activity[0].QuantitySold)
}

func TestStorefront_MountFailureStillRenders(t *testing.T) {
	s := &mockStorefront{mountErr: errors.New("down"), view: render.Storefront{Loading: true, Message: render.LoadingMessage}}
	r := setupRouter(&mockDashboard{}, s)

	w := do(r, http.MethodGet, "/storefront", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), render.LoadingMessage)
}

func TestBuy_Accepted(t *testing.T) {
	s := &mockStorefront{}
	r := setupRouter(&mockDashboard{}, s)

	w := do(r, http.MethodPost, "/storefront/buy", []byte(`{"sku":"A","quantity":2}`))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []models.BuyRequest{{SKU: "A", Quantity: 2}}, s.bought)
}

func TestBuy_BadJSON(t *testing.T) {
	r := setupRouter(&mockDashboard{}, &mockStorefront{})
	w := do(r, http.MethodPost, "/storefront/buy", []byte(`not-json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuy_ServiceErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", apperrors.Wrap(apperrors.ErrValidation, errors.New("quantity")), http.StatusBadRequest},
		{"duplicate", apperrors.ErrDuplicateOrder, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(&mockDashboard{}, &mockStorefront{buyErr: tt.err})
			w := do(r, http.MethodPost, "/storefront/buy", []byte(`{"sku":"A","quantity":1}`))
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
