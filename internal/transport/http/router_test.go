package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/service/auth"
	"github.com/vladislavdragonenkov/shop/internal/service/client"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/product"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
)

const testSecret = "router-test-secret"

type apiFixture struct {
	router      *Router
	adminToken  string
	clientToken string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	logger := log.WithField("component", "router_test")
	store := memory.NewStore()

	authService := auth.NewService(store, testSecret, logger)
	productService := product.NewService(store, logger)
	clientService := client.NewService(store, logger)
	engine := order.NewEngineWithoutMetrics(store, logger)

	router := NewRouter(
		logger,
		authService,
		NewAuthHandler(authService),
		NewOrderHandler(engine),
		NewProductHandler(productService),
		NewClientHandler(clientService),
	)

	f := &apiFixture{router: router}
	f.adminToken = f.registerAndLogin(t, "Boss", "boss@shop.dev", "ADMIN")
	f.clientToken = f.registerAndLogin(t, "Alice", "alice@shop.dev", "CLIENT")

	// Клиенту нужен профиль, чтобы работать с корзиной.
	rec := f.do(t, http.MethodPost, "/api/v1/clients", f.clientToken, map[string]any{
		"fullName": "Alice Johnson",
		"contact":  "+7 900 000-00-00",
		"address":  "Main st. 1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client profile: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	return f
}

func (f *apiFixture) registerAndLogin(t *testing.T, name, email, role string) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "secret123",
		"role":     role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d, body = %s", email, rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d, body = %s", email, rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("login returned empty access token")
	}
	return resp.AccessToken
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) createProduct(t *testing.T, name string, priceMinor int64, stock int32) int64 {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/v1/products", f.adminToken, map[string]any{
		"name":       name,
		"priceMinor": priceMinor,
		"stock":      stock,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var dto struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return dto.ID
}

func TestRouterRejectsMissingAndBrokenTokens(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/products", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/products", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestRouterEchoesRequestID(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer "+f.clientToken)
	req.Header.Set(headerRequestID, "req-42")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if got := rec.Header().Get(headerRequestID); got != "req-42" {
		t.Fatalf("request id header = %q, want req-42", got)
	}
}

func TestLoginWithWrongPasswordReturns401(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "alice@shop.dev",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRegisterDuplicateEmailReturns409(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     "Alice Again",
		"email":    "ALICE@shop.dev",
		"password": "secret123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body = %s", rec.Code, rec.Body.String())
	}
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	productID := f.createProduct(t, "Keyboard", 4500, 10)

	rec := f.do(t, http.MethodPost, "/api/v1/order/cart", f.clientToken, map[string]any{
		"items": []map[string]any{{"productId": productID, "quantity": 2}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add to cart: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var cart struct {
		ID         int64  `json:"id"`
		Status     string `json:"status"`
		TotalMinor int64  `json:"totalMinor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if cart.Status != "CART" || cart.TotalMinor != 9000 {
		t.Fatalf("cart = %+v, want status CART total 9000", cart)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/order/cart", f.clientToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart: status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/order/cart/%d?quantity=1", productID), f.clientToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove from cart: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var removal struct {
		Deleted bool `json:"deleted"`
		Cart    *struct {
			TotalMinor int64 `json:"totalMinor"`
		} `json:"cart"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &removal); err != nil {
		t.Fatalf("decode removal: %v", err)
	}
	if removal.Deleted || removal.Cart == nil || removal.Cart.TotalMinor != 4500 {
		t.Fatalf("removal = %+v, want kept cart with total 4500", removal)
	}

	rec = f.do(t, http.MethodPost, "/api/v1/order/cart/checkout", f.clientToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var placed struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &placed); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if placed.Status != "ORDERED" {
		t.Fatalf("status after checkout = %q, want ORDERED", placed.Status)
	}

	// Корзины больше нет.
	rec = f.do(t, http.MethodGet, "/api/v1/order/cart", f.clientToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get cart after checkout: status = %d, want 404", rec.Code)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/order/%d/history", placed.ID), f.clientToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var events []struct {
		ToStatus string `json:"toStatus"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("history is empty after checkout")
	}
}

func TestStatusUpdateRoleGatingOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	productID := f.createProduct(t, "Mouse", 1500, 5)

	f.do(t, http.MethodPost, "/api/v1/order/cart", f.clientToken, map[string]any{
		"items": []map[string]any{{"productId": productID, "quantity": 1}},
	})
	rec := f.do(t, http.MethodPost, "/api/v1/order/cart/checkout", f.clientToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: status = %d", rec.Code)
	}
	var placed struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &placed); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	rec = f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/order/%d", placed.ID), f.clientToken, map[string]any{
		"status": "PREPARING",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("client PREPARING: status = %d, want 403, body = %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/order/%d", placed.ID), f.adminToken, map[string]any{
		"status": "PAUSED",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/order/%d", placed.ID), f.adminToken, map[string]any{
		"status": "PREPARING",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin PREPARING: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestProductEndpointsRoleGating(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/products", f.clientToken, map[string]any{
		"name":       "Forbidden",
		"priceMinor": 100,
		"stock":      1,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("client create product: status = %d, want 403", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/products/999", f.clientToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown product: status = %d, want 404", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/products/not-a-number", f.clientToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status = %d, want 400", rec.Code)
	}
}

func TestClientProfileEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/clients/me", f.clientToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clients/me: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var me struct {
		ID       int64  `json:"id"`
		FullName string `json:"fullName"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if me.FullName != "Alice Johnson" {
		t.Fatalf("fullName = %q, want Alice Johnson", me.FullName)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/clients", f.clientToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("client list clients: status = %d, want 403", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/clients", f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list clients: status = %d", rec.Code)
	}
}

func TestOrderListFiltersOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	productID := f.createProduct(t, "Cable", 300, 100)

	for i := 0; i < 3; i++ {
		f.do(t, http.MethodPost, "/api/v1/order/cart", f.clientToken, map[string]any{
			"items": []map[string]any{{"productId": productID, "quantity": 1}},
		})
		rec := f.do(t, http.MethodPost, "/api/v1/order/cart/checkout", f.clientToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("checkout %d: status = %d", i, rec.Code)
		}
	}

	rec := f.do(t, http.MethodGet, "/api/v1/order?status=ORDERED", f.clientToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var page struct {
		Data []struct {
			Status string `json:"status"`
		} `json:"data"`
		Meta struct {
			TotalItems int64 `json:"totalItems"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Meta.TotalItems != 3 || len(page.Data) != 3 {
		t.Fatalf("list = %d items, meta %d, want 3", len(page.Data), page.Meta.TotalItems)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/order?status=UNKNOWN", f.clientToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status filter: status = %d, want 400", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/order?startDate=31-12-2024", f.clientToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: status = %d, want 400", rec.Code)
	}
}

func TestOrderDeleteAdminOnlyOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	productID := f.createProduct(t, "Monitor", 20000, 2)

	f.do(t, http.MethodPost, "/api/v1/order/cart", f.clientToken, map[string]any{
		"items": []map[string]any{{"productId": productID, "quantity": 1}},
	})
	rec := f.do(t, http.MethodPost, "/api/v1/order/cart/checkout", f.clientToken, nil)
	var placed struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &placed); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/order/%d", placed.ID), f.clientToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("client delete: status = %d, want 403", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/order/%d", placed.ID), f.adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin delete: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/order/%d", placed.ID), f.adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted order: status = %d, want 404", rec.Code)
	}
}
