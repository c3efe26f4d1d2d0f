package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/seller-tracker/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware трекера продаж.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Use(custommiddleware.CORS)

		r.Get("/health", h.Health)
		r.Post("/signups", h.CreateSignup)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware)

			r.Get("/signups", h.ListSignups)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.Post("/", h.CreateOrder)
				r.Get("/{index}", h.GetOrder)
				r.Patch("/{index}", h.UpdateOrder)
				r.Delete("/{index}", h.DeleteOrder)
				r.Get("/{index}/receipt", h.Receipt)
			})

			r.Get("/dashboard", h.Dashboard)
			r.Get("/export/orders.csv", h.ExportCSV)
			r.Get("/export/orders.xlsx", h.ExportXLSX)

			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.SaveProfile)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			h.writeError(w, http.StatusNotFound, "Not found")
		})

		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			h.writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
		})
	})

	r.NotFound(h.Static)

	return r
}
