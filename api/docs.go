package api

// @title replicate API
// @version v0.1.0
// @description Settings and diagnostics for the sync/publish redirect proxy.

// @license.name MIT

// @host localhost:8788
// @BasePath /api
// @schemes http
