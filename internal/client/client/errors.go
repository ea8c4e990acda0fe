package client

import "errors"

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNoCookie    = errors.New("no auth cookie")
)
