package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/merchstore/go-points-orders/internal/authz"
	"github.com/merchstore/go-points-orders/internal/catalog"
	"github.com/merchstore/go-points-orders/internal/fault"
	"github.com/merchstore/go-points-orders/internal/orders"
	"github.com/merchstore/go-points-orders/internal/redisx"
	"github.com/merchstore/go-points-orders/internal/validation"
)

// Handler wires the core services to the HTTP surface. Caller identity and
// role arrive pre-resolved on X-User-Id / X-Role; this layer only checks the
// permission table and shapes requests/responses.
type Handler struct {
	Catalog  *catalog.Service
	Orders   *orders.Service
	Redis    *redis.Client // optional order cache; nil disables
	Validate *validatorv10.Validate
	Log      *zap.Logger
}

func (h *Handler) Register(r *chi.Mux) {
	r.Post("/api/v1/products", h.createProduct)
	r.Get("/api/v1/products", h.listProducts)
	r.Get("/api/v1/products/{id}", h.getProduct)
	r.Get("/api/v1/variants/{sku}", h.getVariant)
	r.Post("/api/v1/orders", h.createOrder)
	r.Get("/api/v1/orders", h.listOrders)
	r.Get("/api/v1/orders/{id}", h.getOrder)
	r.Put("/api/v1/orders/{id}/status", h.updateStatus)
	r.Delete("/api/v1/orders/{id}", h.cancelOrder)
}

var statusFor = map[fault.Code]int{
	fault.Forbidden:               http.StatusForbidden,
	fault.NotFound:                http.StatusNotFound,
	fault.SkuNotFound:             http.StatusNotFound,
	fault.Validation:              http.StatusUnprocessableEntity,
	fault.DuplicateInRequest:      http.StatusUnprocessableEntity,
	fault.SkuExists:               http.StatusConflict,
	fault.InsufficientStock:       http.StatusConflict,
	fault.InsufficientPoints:      http.StatusConflict,
	fault.InvalidStatusTransition: http.StatusBadRequest,
	fault.CancelNotAllowed:        http.StatusBadRequest,
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	code, ok := fault.CodeOf(err)
	if !ok {
		if h.Log != nil {
			h.Log.Error("internal error", zap.Error(err))
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"code": "INTERNAL", "details": map[string]any{}},
		})
		return
	}
	status, ok := statusFor[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	details := fault.DetailsOf(err)
	if details == nil {
		details = map[string]any{}
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"code": code, "details": details},
	})
}

func role(r *http.Request) string   { return r.Header.Get("X-Role") }
func userID(r *http.Request) string { return r.Header.Get("X-User-Id") }

func (h *Handler) require(w http.ResponseWriter, r *http.Request, op authz.Op) bool {
	if authz.Allowed(op, role(r)) {
		return true
	}
	h.writeErr(w, fault.New(fault.Forbidden, "required_roles", authz.Roles(op)))
	return false
}

func pathID(r *http.Request, field string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fault.New(fault.Validation, field, chi.URLParam(r, "id"))
	}
	return id, nil
}

// ---- products ----

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, authz.OpCreateProduct) {
		return
	}
	var req validation.CreateProductRequest
	if err := validation.Decode(r, &req, h.Validate); err != nil {
		h.writeErr(w, err)
		return
	}
	in := catalog.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Images:      req.Images,
		Variants:    make([]catalog.VariantInput, 0, len(req.Variants)),
	}
	for _, v := range req.Variants {
		in.Variants = append(in.Variants, catalog.VariantInput{
			SKU: v.SKU, Size: v.Size, Color: v.Color,
			PricePoints: v.PricePoints, StockTotal: v.StockTotal,
		})
	}
	p, err := h.Catalog.CreateProduct(r.Context(), in)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.ListProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product_id")
	if err != nil {
		h.writeErr(w, err)
		return
	}
	p, err := h.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) getVariant(w http.ResponseWriter, r *http.Request) {
	v, err := h.Catalog.Variant(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ---- orders ----

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, authz.OpCheckout) {
		return
	}
	uid := userID(r)
	if uid == "" {
		h.writeErr(w, fault.New(fault.Validation, "header", "X-User-Id"))
		return
	}
	var req validation.CreateOrderRequest
	if err := validation.Decode(r, &req, h.Validate); err != nil {
		h.writeErr(w, err)
		return
	}
	lines := make([]orders.LineInput, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, orders.LineInput{SKU: it.SKU, Qty: it.Qty})
	}
	o, err := h.Orders.Checkout(r.Context(), uid, role(r), lines)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.cacheOrder(r, o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, authz.OpListOrders) {
		return
	}
	f := orders.Filter{Status: orders.Status(r.URL.Query().Get("status"))}
	if role(r) == authz.RoleBuyer {
		uid := userID(r)
		if uid == "" {
			h.writeErr(w, fault.New(fault.Validation, "header", "X-User-Id"))
			return
		}
		f.UserID = uid
	} else {
		f.UserID = r.URL.Query().Get("user_id")
	}
	os, err := h.Orders.List(r.Context(), f)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, authz.OpGetOrder) {
		return
	}
	id, err := pathID(r, "order_id")
	if err != nil {
		h.writeErr(w, err)
		return
	}

	o, cached := h.cachedOrder(r, id)
	if !cached {
		o, err = h.Orders.Get(r.Context(), id)
		if err != nil {
			h.writeErr(w, err)
			return
		}
		h.cacheOrder(r, o)
	}
	if role(r) == authz.RoleBuyer && o.UserID != userID(r) {
		h.writeErr(w, fault.New(fault.Forbidden, "order_id", id))
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, authz.OpTransitionOrder) {
		return
	}
	id, err := pathID(r, "order_id")
	if err != nil {
		h.writeErr(w, err)
		return
	}
	var req validation.UpdateStatusRequest
	if err := validation.Decode(r, &req, h.Validate); err != nil {
		h.writeErr(w, err)
		return
	}
	target, err := orders.ParseStatus(req.Status)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	o, err := h.Orders.Transition(r.Context(), id, target, role(r))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.cacheOrder(r, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, authz.OpCancelOrder) {
		return
	}
	id, err := pathID(r, "order_id")
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if role(r) == authz.RoleBuyer && userID(r) == "" {
		h.writeErr(w, fault.New(fault.Validation, "header", "X-User-Id"))
		return
	}
	o, err := h.Orders.Cancel(r.Context(), id, userID(r), role(r))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.cacheOrder(r, o)
	writeJSON(w, http.StatusOK, o)
}

// ---- order cache ----

func (h *Handler) cacheOrder(r *http.Request, o orders.Order) {
	if h.Redis == nil {
		return
	}
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrder, o.ID)
	_ = h.Redis.Set(r.Context(), key, b, redisx.TTLOrderCache).Err()
}

func (h *Handler) cachedOrder(r *http.Request, id int64) (orders.Order, bool) {
	if h.Redis == nil {
		return orders.Order{}, false
	}
	key := fmt.Sprintf(redisx.KeyOrder, id)
	s, err := h.Redis.Get(r.Context(), key).Result()
	if err != nil || s == "" {
		return orders.Order{}, false
	}
	var o orders.Order
	if err := json.Unmarshal([]byte(s), &o); err != nil {
		return orders.Order{}, false
	}
	return o, true
}
