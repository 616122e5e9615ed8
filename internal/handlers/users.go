package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/usersvc/internal/handlers/render"
	"github.com/nkiryanov/usersvc/internal/logger"
	"github.com/nkiryanov/usersvc/internal/service/auth"
)

// Used by other services to make sure the user they know exists here. Responds with 'true' either way
func handleGetOrCreateUser(as authService, l logger.Logger) http.Handler {
	type request struct {
		UUID     string `json:"uuid" validate:"required,uuid"`
		Email    string `json:"email" validate:"required,email"`
		FullName string `json:"full_name" validate:"max=255"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			l.Debug("get or create request not valid", "error", err)
			return
		}

		_, err = as.GetOrCreate(r.Context(), auth.GetOrCreateParams{
			ID:       uuid.MustParse(data.UUID),
			Email:    data.Email,
			FullName: data.FullName,
		})
		if err != nil {
			renderServiceError(w, err)
			return
		}

		render.JSON(w, true)
	})
}
