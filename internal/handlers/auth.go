package handlers

import (
	"net/http"

	"github.com/nkiryanov/usersvc/internal/handlers/middleware"
	"github.com/nkiryanov/usersvc/internal/handlers/render"
	"github.com/nkiryanov/usersvc/internal/handlers/userctx"
	"github.com/nkiryanov/usersvc/internal/logger"
	"github.com/nkiryanov/usersvc/internal/models"
)

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func newTokenResponse(pair models.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
		TokenType:    pair.TokenType,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

// Credentials come as form fields 'username' (the email) and 'password'
func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			l.Debug("login form not parsed", "error", err)
			render.ServiceError(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		data := request{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		}
		if err := render.Validate(w, data); err != nil {
			l.Debug("login request not valid", "error", err)
			return
		}

		pair, err := as.Login(r.Context(), data.Username, data.Password)
		if err != nil {
			renderServiceError(w, err)
			return
		}

		render.JSON(w, newTokenResponse(pair))
	})
}

// Refresh token comes as 'refresh_token' query parameter
func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := request{RefreshToken: r.URL.Query().Get("refresh_token")}
		if err := render.Validate(w, data); err != nil {
			l.Debug("refresh request not valid", "error", err)
			return
		}

		pair, err := as.RefreshPair(r.Context(), data.RefreshToken)
		if err != nil {
			renderServiceError(w, err)
			return
		}

		render.JSON(w, newTokenResponse(pair))
	})
}

// Tokens are stateless, nothing to revoke
func handleLogout() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, messageResponse{Message: "Successful logout"})
	})
}

// The gate puts the token subject to the context.
// Requests let through by the internal header have no subject, so the bearer token is resolved here
func handleUserMe(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			user models.User
			err  error
		)

		if userID, ok := userctx.FromContext(r.Context()); ok {
			user, err = as.UserByID(r.Context(), userID)
		} else {
			token, _ := middleware.BearerToken(r)
			user, err = as.CurrentUser(r.Context(), token)
		}
		if err != nil {
			l.Debug("current user not resolved", "error", err)
			renderServiceError(w, err)
			return
		}

		render.JSON(w, user.Public())
	})
}

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email,max=320"`
		Password string `json:"password" validate:"required,max=72"`
		FullName string `json:"full_name" validate:"max=255"`
	}
	type response struct {
		Status  bool              `json:"status"`
		Message string            `json:"message"`
		Data    models.PublicUser `json:"data"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			l.Debug("register request not valid", "error", err)
			return
		}

		user, err := as.Register(r.Context(), data.Email, data.Password, data.FullName)
		if err != nil {
			renderServiceError(w, err)
			return
		}

		render.JSON(w, response{Status: true, Message: "User created successfully", Data: user.Public()})
	})
}

// The response does not depend on whether the email exists, the status code does
func handleResetPassword(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := request{Email: r.URL.Query().Get("email")}
		if err := render.Validate(w, data); err != nil {
			l.Debug("reset password request not valid", "error", err)
			return
		}

		err := as.ResetPassword(r.Context(), data.Email)
		if err != nil {
			renderServiceError(w, err)
			return
		}

		render.JSON(w, messageResponse{Message: "If the email exists, a password reset link will be sent"})
	})
}
