package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	newserrs "github.com/jdholdren/newsroom/internal/errors"
	"github.com/jdholdren/newsroom/internal/logger"
	"github.com/jdholdren/newsroom/internal/serverutil"
)

// The proxy in front of the api authenticates the caller and names them in this header.
const userHeader = "X-Remote-User"

type userCtxKey struct{}

// requireUserMiddleware rejects requests that don't say who's calling.
func requireUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userHeader)
		if userID == "" {
			if err := serverutil.WriteJSON(w, http.StatusUnauthorized, newserrs.E(http.StatusUnauthorized, "unauthenticated")); err != nil {
				slog.ErrorContext(r.Context(), "error writing response", "error", err)
			}
			return
		}

		ctx := logger.Ctx(r.Context(), slog.String("user_id", userID))
		ctx = context.WithValue(ctx, userCtxKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Fetches the current user tied to the request.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userCtxKey{}).(string)
	return id
}

// pathID reads a numeric id out of the route variables.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, newserrs.E(http.StatusBadRequest, name+" must be a positive integer", newserrs.Detail{Field: name, Error: "invalid id"})
	}

	return id, nil
}
