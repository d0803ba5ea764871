package teams

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// Middleware gates team-scoped routes on membership role. The ledger core
// performs no enforcement itself; every route that can create entries is
// mounted behind RequireRole(RoleEditor).
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireRole ensures the acting user holds at least the given role on the
// {teamID} route parameter's team.
func (m Middleware) RequireRole(min Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			teamID, err := strconv.ParseInt(chi.URLParam(r, "teamID"), 10, 64)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			role, err := m.Service.RoleOf(r.Context(), teamID, actor.UserID)
			if err != nil {
				if errors.Is(err, ErrNotMember) {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
				if m.Logger != nil {
					m.Logger.Error("resolve team role", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !role.Meets(min) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
