package handlers

import (
	"net/http"

	"github.com/nkiryanov/usersvc/internal/handlers/render"
	"github.com/nkiryanov/usersvc/internal/logger"
)

func handleHealth(health healthChecker, l logger.Logger) http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := health.Ping(r.Context()); err != nil {
			l.Warn("health check failed", "error", err)
			render.ServiceError(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}

		render.JSON(w, response{Status: "ok"})
	})
}
