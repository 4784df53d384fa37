package handlers

import "github.com/go-chi/chi/v5"

func RegisterSettingsRoutes(r chi.Router, env *Env) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", env.GetSettingsHandler)
		r.Put("/", env.PutSettingsHandler)
		r.Post("/reset", env.ResetSettingsHandler)
		r.Post("/sync-base-url", env.SetSyncBaseURLHandler)
		r.Post("/publish-base-url", env.SetPublishBaseURLHandler)
	})
}
