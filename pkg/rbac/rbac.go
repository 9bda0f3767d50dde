// Package rbac gates routes on the authenticated identity's privileges.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/stockbook/pkg/middleware"
	"github.com/shashiranjanraj/stockbook/pkg/response"
)

// Admin allows only identities with the admin flag. Guard.Authenticate
// must run first; a request with no identity is answered 401.
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromCtx(r.Context())
		if !ok {
			response.Unauthorized(w)
			return
		}
		if !id.Admin {
			response.Forbidden(w, "Admins only!")
			return
		}
		next.ServeHTTP(w, r)
	})
}
