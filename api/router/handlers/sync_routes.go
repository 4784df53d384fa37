package handlers

import "github.com/go-chi/chi/v5"

func RegisterSyncRoutes(r chi.Router, env *Env) {
	r.Get("/sync/host", env.GetSyncHostHandler)
	r.Post("/rewrite/preview", env.PreviewRewriteHandler)
}
