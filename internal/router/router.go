package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ordersys/order-management/internal/logger"
	"github.com/ordersys/order-management/internal/middleware"
	"github.com/ordersys/order-management/internal/order"
	"github.com/ordersys/order-management/internal/storage"
)

func NewRouter(orderH *order.Handler, store storage.Storage) chi.Router {
	r := chi.NewRouter()

	r.Use(logger.WithLogging)
	r.Use(chiMiddleware.Recoverer)

	r.Use(middleware.GzipHandler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := store.Ping(req.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("OK"))
	})

	r.Post("/order", orderH.CreateOrder)
	r.Get("/order/{id}", orderH.GetOrder)
	r.Put("/order/{id}/status", orderH.UpdateStatus)
	r.Get("/orders", orderH.ListOrders)
	r.Get("/orders/summary", orderH.GetSummary)

	return r
}
