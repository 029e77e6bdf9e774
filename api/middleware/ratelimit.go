package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/ismellshop/shop/api/web"
	"github.com/ismellshop/shop/api/weberr"
	"github.com/ismellshop/shop/rate"
)

// RateLimit throttles a handler per client address. Used on the auth
// endpoints to slow down credential stuffing.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Check(host) {
				err := errors.New("rate limit exceeded")
				return weberr.NewError(err, "too many requests", http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
