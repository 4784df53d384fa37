package api

import (
	"net/http"
	"replicate/api/router/handlers"
	"replicate/logger"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates the API router. All registered paths are relative to the
// /api base path.
func NewRouter(env *handlers.Env) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)

	handlers.RegisterHealthRoutes(router)
	handlers.RegisterVersionRoutes(router)
	handlers.RegisterSettingsRoutes(router, env)
	handlers.RegisterSyncRoutes(router, env)
	handlers.RegisterRedirectLogRoutes(router)
	handlers.RegisterNoticeRoutes(router)

	router.NotFound(handlers.NotFoundHandler)
	return router
}

// NewServerHandler mounts the API router under /api.
func NewServerHandler(env *handlers.Env) http.Handler {
	root := chi.NewRouter()
	root.Mount("/api", NewRouter(env))
	root.NotFound(handlers.NotFoundHandler)
	return root
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("API %s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
