package handlers

import (
	"net/http"
	"strings"

	"github.com/upb/login-api/services"
	"go.uber.org/zap"
)

// AllowedMethods are the methods advertised to cross-origin callers
var AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}

// AllowedHeaders are the request headers advertised to cross-origin callers
var AllowedHeaders = []string{"Authorization", "Content-Type", "Accept"}

// NotFound answers requests for unknown routes
func NotFound(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		HandleServiceError(w, services.ErrRouteNotFound, logger)
	}
}

// Preflight answers OPTIONS requests with an empty 200
func Preflight(w http.ResponseWriter, r *http.Request) {
	methods := strings.Join(AllowedMethods, ", ")
	w.Header().Set("Allow", methods)
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", strings.Join(AllowedHeaders, ", "))
	w.WriteHeader(http.StatusOK)
}
