package token

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophagenda/internal/common"
)

// NewCookie wraps an encoded token in the __Host-auth cookie. The cookie
// expires together with the payload.
func NewCookie(value string, validUntil time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    value,
		Path:     "/",
		Expires:  validUntil,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearCookie returns a cookie that makes the browser drop __Host-auth.
func ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
