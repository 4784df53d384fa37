package handlers

import "github.com/go-chi/chi/v5"

func RegisterRedirectLogRoutes(r chi.Router) {
	r.Route("/redirects", func(r chi.Router) {
		r.Get("/", GetRedirectLogsHandler)
		r.Delete("/", ClearRedirectLogsHandler)
	})
}
