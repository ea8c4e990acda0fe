package client

import (
	"context"

	"github.com/dmitrijs2005/gophagenda/internal/wire"
)

// Client is the relay API as seen by the client services.
type Client interface {
	Ping(ctx context.Context) error

	Register(ctx context.Context, req wire.RegisterRequest) error
	Login(ctx context.Context, usernameHashed, passwordHashed string) (string, error)
	IssueCookie(ctx context.Context, payloadSigned string) (wire.CookieResponse, error)
	Logout(ctx context.Context) error
	SetTokenRefresher(fn TokenRefresher)

	PrivateKey(ctx context.Context) (string, error)
	PublicKey(ctx context.Context, usernameHashed string) (string, error)
	Metadata(ctx context.Context) (string, error)
	PutMetadata(ctx context.Context, metadataEncryptedSigned string) error
	DeleteAccount(ctx context.Context) error
	Export(ctx context.Context) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)

	GetEvent(ctx context.Context, id, passwordHashed string) (string, error)
	CreateEvent(ctx context.Context, req wire.EventPutRequest) error
	UpdateEvent(ctx context.Context, req wire.EventPutRequest) error
	DeleteEvent(ctx context.Context, id string) error

	SendInvitation(ctx context.Context, receiverHashed, envelope string) error
	Requests(ctx context.Context) ([]wire.Invitation, error)
	Responses(ctx context.Context) ([]wire.Invitation, error)
	Respond(ctx context.Context, senderHashed, envelope string) error
	DeleteInvitation(ctx context.Context, otherHashed string) error
}

// TokenRefresher signs a fresh token payload when the relay reports the
// current cookie as expired.
type TokenRefresher func(ctx context.Context) (string, error)
