package auth

import (
	"context"
	"net/http"

	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/transport"
)

// PermissionsAPI decides whether a tenant user may perform an action
// on a module.
type PermissionsAPI interface {
	Authorize(ctx context.Context, userID, companyID int64, module, action string) error
}

// Authorization gates routes behind the permission aggregator. It must
// run inside Handler.Middleware so the current user is already on the
// context.
type Authorization struct {
	permissions PermissionsAPI
}

func NewAuthorization(permissions PermissionsAPI) *Authorization {
	return &Authorization{permissions: permissions}
}

func (a *Authorization) Require(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				transport.WriteAppError(w, internal.ErrUnauthenticated)
				return
			}
			if err := a.permissions.Authorize(r.Context(), user.UserID, user.CompanyID, module, action); err != nil {
				transport.WriteAppError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
