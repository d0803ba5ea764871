package teams

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/internal/shared"
)

type membershipRepo struct {
	RepositoryPort
	memberships map[int64]Role
}

func (r *membershipRepo) GetMembership(ctx context.Context, teamID, userID int64) (Membership, error) {
	role, ok := r.memberships[userID]
	if !ok {
		return Membership{}, ErrNotMember
	}
	return Membership{TeamID: teamID, UserID: userID, Role: role}, nil
}

func gateRouter(t *testing.T, min Role, memberships map[int64]Role) http.Handler {
	t.Helper()
	svc := NewService(&membershipRepo{memberships: memberships})
	gate := Middleware{Service: svc, Logger: slog.New(slog.DiscardHandler)}

	r := chi.NewRouter()
	r.Route("/teams/{teamID}", func(r chi.Router) {
		r.With(gate.RequireRole(min)).Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func gateRequest(router http.Handler, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/teams/1/", nil)
	if userID != 0 {
		ctx := shared.ContextWithActor(req.Context(), shared.Actor{UserID: userID})
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireRoleAllowsSufficientRole(t *testing.T) {
	router := gateRouter(t, RoleEditor, map[int64]Role{
		1: RoleEditor,
		2: RoleOwner,
	})
	require.Equal(t, http.StatusOK, gateRequest(router, 1).Code)
	require.Equal(t, http.StatusOK, gateRequest(router, 2).Code)
}

func TestRequireRoleRejectsInsufficientRole(t *testing.T) {
	router := gateRouter(t, RoleAdmin, map[int64]Role{
		1: RoleViewer,
		2: RoleEditor,
	})
	require.Equal(t, http.StatusForbidden, gateRequest(router, 1).Code)
	require.Equal(t, http.StatusForbidden, gateRequest(router, 2).Code)
}

func TestRequireRoleRejectsNonMember(t *testing.T) {
	router := gateRouter(t, RoleViewer, map[int64]Role{})
	require.Equal(t, http.StatusForbidden, gateRequest(router, 9).Code)
}

func TestRequireRoleRejectsMissingActor(t *testing.T) {
	router := gateRouter(t, RoleViewer, map[int64]Role{1: RoleOwner})
	require.Equal(t, http.StatusUnauthorized, gateRequest(router, 0).Code)
}
