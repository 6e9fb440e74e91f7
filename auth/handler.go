package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/upb/login-api/handlers"
	"github.com/upb/login-api/middleware"
	"github.com/upb/login-api/services"
	"github.com/upb/login-api/utils"
	"go.uber.org/zap"
)

// maxBodyBytes bounds the sign-in request body
const maxBodyBytes = 64 << 10

// SessionManager signs users in and refreshes their sessions.
type SessionManager interface {
	SignIn(ctx context.Context, creds services.Credentials) (*services.Session, error)
	Refresh(ctx context.Context, token string) (*services.Session, error)
}

// Handler serves the sign-in, session and sign-out endpoints.
type Handler struct {
	sessions SessionManager
	cookies  CookieConfig
	logger   *zap.Logger
}

// NewHandler creates a new auth handler. An empty cookie name selects
// DefaultCookieName.
func NewHandler(sessions SessionManager, cookies CookieConfig, logger *zap.Logger) *Handler {
	if cookies.Name == "" {
		cookies.Name = DefaultCookieName
	}
	return &Handler{
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
	}
}

// CookieName returns the name of the session cookie
func (h *Handler) CookieName() string {
	return h.cookies.Name
}

type signInRequest struct {
	Account accountParams `json:"account"`
}

type accountParams struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// credentialsInput is the validated form of accountParams
type credentialsInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// UserResponse is the body returned by sign-in and session refresh
type UserResponse struct {
	User UserPayload `json:"user"`
}

// UserPayload describes the signed-in user and their token
type UserPayload struct {
	Username            string `json:"username"`
	Name                string `json:"name"`
	AuthenticationToken string `json:"authentication_token"`
}

// HandleSignIn handles POST /sign-in
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	creds, err := h.decodeCredentials(r)
	if err != nil {
		handlers.HandleServiceError(w, err, h.logger)
		return
	}

	session, err := h.sessions.SignIn(r.Context(), creds)
	if err != nil {
		handlers.HandleServiceError(w, err, h.logger)
		return
	}

	http.SetCookie(w, h.cookies.sessionCookie(r, session.Token, session.ExpiresAt()))
	if err := utils.WriteCreated(w, newUserResponse(session)); err != nil {
		h.logger.Error("failed to write sign-in response", zap.Error(err))
	}
}

// HandleSession handles GET /session. The presented token is taken from
// the request context, see middleware.AuthMiddleware.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetSessionTokenFromContext(r.Context())

	session, err := h.sessions.Refresh(r.Context(), token)
	if err != nil {
		handlers.HandleServiceError(w, err, h.logger)
		return
	}

	http.SetCookie(w, h.cookies.sessionCookie(r, session.Token, session.ExpiresAt()))
	if err := utils.WriteOK(w, newUserResponse(session)); err != nil {
		h.logger.Error("failed to write session response", zap.Error(err))
	}
}

// HandleSignOut handles DELETE /sign-out. It always succeeds.
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookies.expiredSessionCookie(r))
	utils.WriteNoContent(w)
}

func (h *Handler) decodeCredentials(r *http.Request) (services.Credentials, error) {
	var req signInRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("invalid sign-in body",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		return services.Credentials{}, services.ErrMalformedBody
	}

	input := credentialsInput{
		Username: req.Account.Login,
		Password: req.Account.Password,
	}
	if input.Username == "" {
		input.Username = req.Account.Username
	}

	if err := utils.ValidateStruct(&input); err != nil {
		if !utils.IsValidationError(err) {
			return services.Credentials{}, services.WrapUnexpected("failed to validate sign-in request", err)
		}
		h.logger.Debug("sign-in request incomplete",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Any("fields", utils.GetValidationFields(err)))

		switch utils.FirstInvalidField(err) {
		case "Username":
			return services.Credentials{}, services.ErrMissingUsername
		case "Password":
			return services.Credentials{}, services.ErrMissingPassword
		}
		return services.Credentials{}, services.WrapUnexpected("failed to validate sign-in request", err)
	}

	return services.Credentials{Username: input.Username, Password: input.Password}, nil
}

func newUserResponse(session *services.Session) UserResponse {
	return UserResponse{
		User: UserPayload{
			Username:            session.Principal.Username,
			Name:                session.Principal.DisplayName,
			AuthenticationToken: session.Token,
		},
	}
}
