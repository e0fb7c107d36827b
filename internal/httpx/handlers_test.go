package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/merchstore/go-points-orders/internal/catalog"
	"github.com/merchstore/go-points-orders/internal/orders"
	"github.com/merchstore/go-points-orders/internal/points"
	"github.com/merchstore/go-points-orders/internal/store"
	"github.com/merchstore/go-points-orders/internal/validation"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	st := store.NewMemory()
	locks := store.NewKeyLocks()
	if err := points.Seed(context.Background(), st, map[string]int{"u1": 5000, "u2": 2000}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := NewRouter()
	h := &Handler{
		Catalog:  catalog.NewService(st, locks),
		Orders:   orders.NewService(st, locks, nil, nil, "test"),
		Validate: validation.New(),
	}
	h.Register(r)
	return r
}

type header struct{ k, v string }

func asRole(role string) header { return header{"X-Role", role} }

func asUser(uid string) header { return header{"X-User-Id", uid} }

func do(t *testing.T, r http.Handler, method, path string, body any, hs ...header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, h := range hs {
		req.Header.Set(h.k, h.v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Error.Code
}

func seedProduct(t *testing.T, r http.Handler) {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Corporate Tee",
		"variants": []map[string]any{
			{"sku": "TSHIRT-M", "size": "M", "price_points": 100, "stock_total": 10},
		},
	}, asRole("content_admin"))
	if w.Code != http.StatusCreated {
		t.Fatalf("seed product: %d %s", w.Code, w.Body.String())
	}
}

func TestCreateProductRoles(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/products", map[string]any{"name": "Tee"}, asRole("buyer"))
	if w.Code != http.StatusForbidden || errCode(t, w) != "FORBIDDEN" {
		t.Fatalf("buyer create product: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/v1/products", map[string]any{"name": "Tee"}, asRole("content_admin"))
	if w.Code != http.StatusCreated {
		t.Fatalf("admin create product: %d %s", w.Code, w.Body.String())
	}
}

func TestCreateProductDuplicateSKUs(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Tee",
		"variants": []map[string]any{
			{"sku": "A", "price_points": 1, "stock_total": 1},
			{"sku": "A", "price_points": 1, "stock_total": 1},
		},
	}, asRole("content_admin"))
	if w.Code != http.StatusUnprocessableEntity || errCode(t, w) != "DUPLICATE_IN_REQUEST" {
		t.Fatalf("dup skus: %d %s", w.Code, w.Body.String())
	}
}

func TestGetVariant(t *testing.T) {
	r := newTestRouter(t)
	seedProduct(t, r)

	w := do(t, r, http.MethodGet, "/api/v1/variants/TSHIRT-M", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get variant: %d", w.Code)
	}
	v := decode[catalog.Variant](t, w)
	if v.SKU != "TSHIRT-M" || v.PricePoints != 100 {
		t.Fatalf("variant: %+v", v)
	}

	w = do(t, r, http.MethodGet, "/api/v1/variants/NOPE", nil)
	if w.Code != http.StatusNotFound || errCode(t, w) != "SKU_NOT_FOUND" {
		t.Fatalf("missing variant: %d %s", w.Code, w.Body.String())
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	r := newTestRouter(t)
	seedProduct(t, r)

	body := map[string]any{"items": []map[string]any{{"sku": "TSHIRT-M", "qty": 3}}}

	// Missing identity header.
	w := do(t, r, http.MethodPost, "/api/v1/orders", body, asRole("buyer"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing X-User-Id: %d", w.Code)
	}

	// Wrong role.
	w = do(t, r, http.MethodPost, "/api/v1/orders", body, asRole("fulfillment_admin"), asUser("u1"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin checkout: %d", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/v1/orders", body, asRole("buyer"), asUser("u1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", w.Code, w.Body.String())
	}
	o := decode[orders.Order](t, w)
	if o.TotalPoints != 300 || o.Status != orders.StatusNew {
		t.Fatalf("order: %+v", o)
	}

	// Validator rejects qty 0 before it reaches the core.
	w = do(t, r, http.MethodPost, "/api/v1/orders",
		map[string]any{"items": []map[string]any{{"sku": "TSHIRT-M", "qty": 0}}},
		asRole("buyer"), asUser("u1"))
	if w.Code != http.StatusUnprocessableEntity || errCode(t, w) != "VALIDATION_ERROR" {
		t.Fatalf("qty 0: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/v1/orders",
		map[string]any{"items": []map[string]any{{"sku": "NOPE", "qty": 1}}},
		asRole("buyer"), asUser("u1"))
	if w.Code != http.StatusNotFound || errCode(t, w) != "SKU_NOT_FOUND" {
		t.Fatalf("unknown sku: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/v1/orders",
		map[string]any{"items": []map[string]any{{"sku": "TSHIRT-M", "qty": 10}}},
		asRole("buyer"), asUser("u2"))
	if w.Code != http.StatusConflict || errCode(t, w) != "INSUFFICIENT_POINTS" {
		t.Fatalf("insufficient points: %d %s", w.Code, w.Body.String())
	}
}

func TestListOrdersVisibility(t *testing.T) {
	r := newTestRouter(t)
	seedProduct(t, r)

	for _, uid := range []string{"u1", "u2"} {
		w := do(t, r, http.MethodPost, "/api/v1/orders",
			map[string]any{"items": []map[string]any{{"sku": "TSHIRT-M", "qty": 1}}},
			asRole("buyer"), asUser(uid))
		if w.Code != http.StatusCreated {
			t.Fatalf("checkout %s: %d", uid, w.Code)
		}
	}

	w := do(t, r, http.MethodGet, "/api/v1/orders", nil, asRole("buyer"), asUser("u1"))
	if w.Code != http.StatusOK {
		t.Fatalf("buyer list: %d", w.Code)
	}
	mine := decode[[]orders.Order](t, w)
	if len(mine) != 1 || mine[0].UserID != "u1" {
		t.Fatalf("buyer sees: %+v", mine)
	}

	w = do(t, r, http.MethodGet, "/api/v1/orders", nil, asRole("fulfillment_admin"))
	everything := decode[[]orders.Order](t, w)
	if len(everything) != 2 {
		t.Fatalf("admin sees %d orders", len(everything))
	}

	w = do(t, r, http.MethodGet, "/api/v1/orders", nil, asRole("buyer"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("buyer without id: %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/v1/orders", nil, asRole("content_admin"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("content_admin list: %d", w.Code)
	}
}

func TestStatusUpdateEndpoint(t *testing.T) {
	r := newTestRouter(t)
	seedProduct(t, r)

	w := do(t, r, http.MethodPost, "/api/v1/orders",
		map[string]any{"items": []map[string]any{{"sku": "TSHIRT-M", "qty": 2}}},
		asRole("buyer"), asUser("u1"))
	o := decode[orders.Order](t, w)

	w = do(t, r, http.MethodPut, "/api/v1/orders/1/status",
		map[string]any{"status": "UNDER_REVIEW"}, asRole("buyer"), asUser("u1"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("buyer transition: %d", w.Code)
	}

	w = do(t, r, http.MethodPut, "/api/v1/orders/1/status",
		map[string]any{"status": "UNDER_REVIEW"}, asRole("fulfillment_admin"))
	if w.Code != http.StatusOK {
		t.Fatalf("review: %d %s", w.Code, w.Body.String())
	}
	got := decode[orders.Order](t, w)
	if got.ID != o.ID || got.Status != orders.StatusUnderReview || !got.Reserved {
		t.Fatalf("order: %+v", got)
	}

	w = do(t, r, http.MethodPut, "/api/v1/orders/1/status",
		map[string]any{"status": "COMPLETED"}, asRole("fulfillment_admin"))
	if w.Code != http.StatusBadRequest || errCode(t, w) != "INVALID_STATUS_TRANSITION" {
		t.Fatalf("invalid transition: %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPut, "/api/v1/orders/1/status",
		map[string]any{"status": "SHIPPED"}, asRole("fulfillment_admin"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown status: %d", w.Code)
	}

	w = do(t, r, http.MethodPut, "/api/v1/orders/99/status",
		map[string]any{"status": "UNDER_REVIEW"}, asRole("fulfillment_admin"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown order: %d", w.Code)
	}
}

func TestCancelEndpoint(t *testing.T) {
	r := newTestRouter(t)
	seedProduct(t, r)

	w := do(t, r, http.MethodPost, "/api/v1/orders",
		map[string]any{"items": []map[string]any{{"sku": "TSHIRT-M", "qty": 1}}},
		asRole("buyer"), asUser("u1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: %d", w.Code)
	}

	w = do(t, r, http.MethodDelete, "/api/v1/orders/1", nil, asRole("buyer"), asUser("u2"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign cancel: %d", w.Code)
	}

	w = do(t, r, http.MethodDelete, "/api/v1/orders/1", nil, asRole("buyer"), asUser("u1"))
	if w.Code != http.StatusOK {
		t.Fatalf("owner cancel: %d %s", w.Code, w.Body.String())
	}
	got := decode[orders.Order](t, w)
	if got.Status != orders.StatusCancelled {
		t.Fatalf("status: %s", got.Status)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	r := newTestRouter(t)
	seedProduct(t, r)

	w := do(t, r, http.MethodPost, "/api/v1/orders",
		map[string]any{"items": []map[string]any{{"sku": "TSHIRT-M", "qty": 1}}},
		asRole("buyer"), asUser("u1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/v1/orders/1", nil, asRole("buyer"), asUser("u2"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("foreign get: %d", w.Code)
	}
	w = do(t, r, http.MethodGet, "/api/v1/orders/1", nil, asRole("buyer"), asUser("u1"))
	if w.Code != http.StatusOK {
		t.Fatalf("owner get: %d", w.Code)
	}
	w = do(t, r, http.MethodGet, "/api/v1/orders/1", nil, asRole("fulfillment_admin"))
	if w.Code != http.StatusOK {
		t.Fatalf("admin get: %d", w.Code)
	}
}
