package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/skip-selection/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware шага выбора контейнера.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/skips", h.GetSkips)
		r.Post("/skips/refresh", h.RefreshSkips)

		r.Route("/selection", func(r chi.Router) {
			r.Get("/", h.GetSelection)
			r.Put("/", h.SelectSkip)
			r.Delete("/", h.ClearSelection)
			r.Post("/continue", h.Continue)
		})

		r.Get("/bookings/{id}", h.GetBooking)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
