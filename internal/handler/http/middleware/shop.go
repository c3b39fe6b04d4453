package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/shop-erp-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireShop rejects tokens that are not scoped to a shop.
func RequireShop(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Forbidden(w, "Shop access required")
			return
		}

		shopID, ok := claims["shop_id"].(string)
		if !ok || shopID == "" {
			response.Forbidden(w, "Shop access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
