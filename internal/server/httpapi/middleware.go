package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/netx"
	"github.com/dmitrijs2005/gophagenda/internal/token"
)

// authedHandler receives the verified usernameHashed of the caller.
type authedHandler func(w http.ResponseWriter, r *http.Request, usernameHashed string)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) observe(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.Observe(route, rec.code, time.Since(start))
	})
}

func (s *Server) rateLimit(cost int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(netx.ClientIP(r), cost, s.clock.Now()) {
			s.metrics.RateLimited.Inc()
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate verifies the __Host-auth cookie. Any failure clears the
// cookie and sends the caller to the login entry point; anything other than
// plain expiry is treated as forgery and blocks the client IP.
func (s *Server) authenticate(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(common.AuthCookieName)
		if err != nil {
			s.metrics.AuthFailures.WithLabelValues("missing").Inc()
			redirectLogin(w, r)
			return
		}

		payload, err := s.auth.Verify(r.Context(), c.Value)
		switch {
		case err == nil:
		case errors.Is(err, common.ErrExpired):
			s.metrics.AuthFailures.WithLabelValues("expired").Inc()
			redirectLogin(w, r)
			return
		default:
			s.metrics.AuthFailures.WithLabelValues(authFailureReason(err)).Inc()
			s.limiter.Block(netx.ClientIP(r), s.clock.Now())
			s.forgery(r)
			redirectLogin(w, r)
			return
		}

		next(w, r, payload.UsernameHashed)
	})
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrSignatureInvalid):
		return "signature"
	case errors.Is(err, common.ErrMalformedInput):
		return "malformed"
	case errors.Is(err, common.ErrorNotFound):
		return "unknown_user"
	default:
		return "other"
	}
}

func redirectLogin(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, token.ClearCookie())
	http.Redirect(w, r, common.AuthEntryPath, http.StatusSeeOther)
}

func (s *Server) forgery(r *http.Request) {
	route := r.Pattern
	if route == "" {
		route = r.URL.Path
	}
	s.metrics.Forgery.WithLabelValues(route).Inc()
	s.logger.Warn(r.Context(), "forgery attempt", "method", r.Method, "path", r.URL.Path, "ip", netx.ClientIP(r))
}
