package common

import "time"

// AuthCookieName is the cookie carrying the signed session token. The
// __Host- prefix pins it to a secure, host-only, root-path cookie.
const AuthCookieName = "__Host-auth"

// TokenValidity is how long a freshly issued session token stays valid.
const TokenValidity = 15 * time.Minute

// Login and unauthenticated redirect targets used by the relay.
const (
	AuthEntryPath = "/auth"
	AppEntryPath  = "/app"
)
