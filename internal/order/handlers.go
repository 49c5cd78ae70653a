package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ordersys/order-management/internal/logger"
	"github.com/ordersys/order-management/internal/types/order"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createOrderRequest struct {
	Customer struct {
		Name     string `json:"name"`
		Document string `json:"document"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	} `json:"customer"`
	Order struct {
		TotalValue int64 `json:"total_value"`
		Items      []struct {
			ProductName string `json:"product_name"`
			Quantity    int    `json:"quantity"`
			UnitValue   int64  `json:"unit_value"`
		} `json:"items"`
	} `json:"order"`
}

func (r *createOrderRequest) validate() string {
	if len(r.Customer.Name) < 3 {
		return "Name must be at least 3 characters long"
	}
	if len(r.Customer.Document) < 11 {
		return "Document must be at least 11 characters long"
	}
	if _, err := mail.ParseAddress(r.Customer.Email); err != nil {
		return "Invalid email"
	}
	if len(r.Customer.Phone) < 11 {
		return "Phone must be at least 11 characters long"
	}
	if r.Order.TotalValue <= 0 {
		return "Total value must be positive"
	}
	if len(r.Order.Items) == 0 {
		return "At least one item is required"
	}
	for _, it := range r.Order.Items {
		if it.ProductName == "" {
			return "Product name is required"
		}
		if it.Quantity <= 0 {
			return "Quantity must be positive"
		}
		if it.UnitValue <= 0 {
			return "Unit value must be positive"
		}
	}
	return ""
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	in := CreateOrderInput{
		Customer: CustomerInput{
			Name:     req.Customer.Name,
			Document: req.Customer.Document,
			Email:    req.Customer.Email,
			Phone:    req.Customer.Phone,
		},
		Total: req.Order.TotalValue,
	}
	for _, it := range req.Order.Items {
		in.Items = append(in.Items, ItemInput{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitValue:   it.UnitValue,
		})
	}

	id, err := h.svc.CreateOrder(r.Context(), in)
	if err != nil {
		logger.Log.Error("create order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"order": id})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	o, customer, items, err := h.svc.GetOrder(r.Context(), id)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "Customer not found")
	case err != nil:
		logger.Log.Error("get order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"order":    o,
			"customer": customer,
			"items":    items,
		})
	}
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	f, errMsg := parseListFilter(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	orders, total, err := h.svc.ListOrders(r.Context(), f)
	if err != nil {
		logger.Log.Error("list orders", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	totalPages := 0
	if f.Limit > 0 {
		totalPages = (total + f.Limit - 1) / f.Limit
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"pagination": map[string]any{
			"page":        f.Page,
			"limit":       f.Limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

func parseListFilter(r *http.Request) (order.ListFilter, string) {
	q := r.URL.Query()
	f := order.ListFilter{
		CustomerEmail: q.Get("customer_email"),
		OrderNumber:   q.Get("order_number"),
		Page:          1,
		Limit:         10,
	}

	if v := q.Get("status"); v != "" {
		st := order.Status(v)
		if !st.Valid() {
			return f, "Invalid status"
		}
		f.Status = &st
	}
	if v := q.Get("created_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, "Invalid created_from"
		}
		f.CreatedFrom = &t
	}
	if v := q.Get("created_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, "Invalid created_to"
		}
		f.CreatedTo = &t
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, "Invalid page"
		}
		f.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, "Invalid limit"
		}
		f.Limit = n
	}
	return f, ""
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		logger.Log.Error("order summary", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

type updateStatusRequest struct {
	Status order.Status `json:"status"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	o, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	switch {
	case errors.Is(err, ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrStatusUnchanged):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Status unchanged",
			"order":   o,
		})
	case errors.Is(err, ErrOrderDelivered):
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Order already delivered"})
	case errors.Is(err, ErrInvalidTransition):
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid status transition"})
	case err != nil:
		logger.Log.Error("update order status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Order status updated",
			"order":   o,
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
