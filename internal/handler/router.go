package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/monsterfusion-admin/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware админ-панели.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.Metrics)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.GzipMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/admin/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/admin/session", h.Session)

			r.Route("/codes", func(r chi.Router) {
				r.Post("/", h.CreateCode)
				r.Get("/", h.ListCodes)
				r.Post("/batch", h.CreateBatch)
				r.Post("/delete-filtered", h.DeleteFiltered)
				r.Get("/reconcile", h.Reconcile)
				r.Get("/{code}", h.GetCode)
				r.Put("/{code}", h.UpdateCode)
				r.Delete("/{code}", h.DeleteCode)
			})

			r.Get("/divergences", h.Divergences)
			r.Post("/divergences/{id}/resolve", h.ResolveDivergence)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/{uid}/ban", h.BanUser)
				r.Delete("/{uid}/ban", h.UnbanUser)
			})

			r.Route("/files", func(r chi.Router) {
				r.Get("/", h.ListFiles)
				r.Post("/", h.UploadFile)
				r.Delete("/", h.DeleteFile)
				r.Post("/folders", h.CreateFolder)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
