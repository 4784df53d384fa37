package handlers

import "github.com/go-chi/chi/v5"

func RegisterNoticeRoutes(r chi.Router) {
	r.Route("/notices", func(r chi.Router) {
		r.Get("/", GetNoticesHandler)
		r.Delete("/", ClearNoticesHandler)
	})
}
