// Package services contains application services for the GophAgenda client.
// AuthService owns the session; AgendaService and InvitationService borrow
// it for every operation that needs the private key.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/dmitrijs2005/gophagenda/internal/client/client"
	"github.com/dmitrijs2005/gophagenda/internal/client/repositories/cache"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
	"github.com/dmitrijs2005/gophagenda/internal/documents"
	"github.com/dmitrijs2005/gophagenda/internal/filex"
	"github.com/dmitrijs2005/gophagenda/internal/session"
	"github.com/dmitrijs2005/gophagenda/internal/token"
	"github.com/dmitrijs2005/gophagenda/internal/validate"
	"github.com/dmitrijs2005/gophagenda/internal/wire"
)

// derivePasswordID is a test seam for the PBKDF2 derivation.
var derivePasswordID = cryptox.DerivePasswordID

// SessionProvider hands out the active session.
type SessionProvider interface {
	Session() (*session.Session, error)
}

type AuthService struct {
	client   client.Client
	cache    cache.Repository
	clock    token.Clock
	validity time.Duration

	mu      sync.RWMutex
	session *session.Session
}

func NewAuthService(c client.Client, cacheRepo cache.Repository, clock token.Clock, validity time.Duration) *AuthService {
	if clock == nil {
		clock = token.SystemClock{}
	}
	if validity <= 0 {
		validity = common.TokenValidity
	}
	return &AuthService{client: c, cache: cacheRepo, clock: clock, validity: validity}
}

// Session returns the logged-in session or common.ErrorUnauthorized.
func (a *AuthService) Session() (*session.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil || !a.session.Active() {
		return nil, common.ErrorUnauthorized
	}
	return a.session, nil
}

func (a *AuthService) LoggedIn() bool {
	_, err := a.Session()
	return err == nil
}

// Register creates the identity and the initial profile, uploads them and
// logs in.
func (a *AuthService) Register(ctx context.Context, username, password string) (*session.Session, error) {
	if err := validate.Username(username); err != nil {
		return nil, err
	}
	if err := validate.Password(password); err != nil {
		return nil, err
	}

	usernameHashed := cryptox.DeriveUsernameID(username)
	passwordHashed, err := derivePasswordID(ctx, username, password)
	if err != nil {
		return nil, err
	}

	id, err := cryptox.GenerateIdentity(ctx, cryptox.Credentials{Username: username, Password: password}, nil)
	if err != nil {
		return nil, err
	}
	defer id.PrivateKey.ClearPrivateParams()

	md, err := documents.NewMetadata(username).Encode()
	if err != nil {
		return nil, err
	}
	mdEnv, err := cryptox.SealAsymmetric(md, id.PublicKeyArmored, id.PrivateKey)
	if err != nil {
		return nil, err
	}

	err = a.client.Register(ctx, wire.RegisterRequest{
		UsernameHashed:             usernameHashed,
		PasswordHashed:             passwordHashed,
		PrivateKeyEncryptedArmored: id.PrivateKeyEncryptedArmored,
		PublicKeyArmored:           id.PublicKeyArmored,
		MetadataEncryptedSigned:    mdEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	return a.Login(ctx, username, password)
}

// Login authenticates, unlocks the private key, obtains the auth cookie and
// checks the relay's copy of the public key against the unlocked key.
func (a *AuthService) Login(ctx context.Context, username, password string) (*session.Session, error) {
	usernameHashed := cryptox.DeriveUsernameID(username)
	passwordHashed, err := derivePasswordID(ctx, username, password)
	if err != nil {
		return nil, err
	}

	locked, err := a.client.Login(ctx, usernameHashed, passwordHashed)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	key, err := cryptox.DecryptIdentity(locked, password)
	if err != nil {
		return nil, err
	}

	if err := a.issueCookie(ctx, key, usernameHashed); err != nil {
		key.ClearPrivateParams()
		return nil, err
	}

	pub, err := a.client.PublicKey(ctx, "me")
	if err != nil {
		key.ClearPrivateParams()
		return nil, fmt.Errorf("public key: %w", err)
	}

	s, err := session.New(username, passwordHashed, pub, key)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	prev := a.session
	a.session = s
	a.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	a.client.SetTokenRefresher(a.RefreshToken)
	return s, nil
}

func (a *AuthService) issueCookie(ctx context.Context, key *crypto.Key, usernameHashed string) error {
	signed, _, err := token.Issue(key, usernameHashed, a.clock, a.validity)
	if err != nil {
		return err
	}
	if _, err := a.client.IssueCookie(ctx, signed); err != nil {
		return fmt.Errorf("cookie: %w", err)
	}
	return nil
}

// RefreshToken signs a new token payload with the session key.
func (a *AuthService) RefreshToken(ctx context.Context) (string, error) {
	s, err := a.Session()
	if err != nil {
		return "", err
	}
	var signed string
	err = s.WithKey(func(key *crypto.Key) error {
		signed, _, err = token.Issue(key, s.UsernameHashed(), a.clock, a.validity)
		return err
	})
	return signed, err
}

// Logout wipes the key, clears the cache and tells the relay. Local state is
// cleared even when the relay is unreachable.
func (a *AuthService) Logout(ctx context.Context) error {
	a.client.SetTokenRefresher(nil)

	a.mu.Lock()
	s := a.session
	a.session = nil
	a.mu.Unlock()
	if s != nil {
		s.Close()
	}

	clearErr := a.cache.Clear(ctx)
	logoutErr := a.client.Logout(ctx)
	if errors.Is(logoutErr, client.ErrUnavailable) {
		logoutErr = nil
	}
	return errors.Join(clearErr, logoutErr)
}

// DeleteAccount removes every row the relay holds for the user and logs out.
func (a *AuthService) DeleteAccount(ctx context.Context) error {
	if _, err := a.Session(); err != nil {
		return err
	}
	if err := a.client.DeleteAccount(ctx); err != nil {
		return err
	}
	return a.Logout(ctx)
}

// Export asks the relay for a ciphertext bundle of the account and saves it
// into dir. It returns the written path.
func (a *AuthService) Export(ctx context.Context, dir string) (string, error) {
	if _, err := a.Session(); err != nil {
		return "", err
	}
	url, err := a.client.Export(ctx)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	data, err := a.client.Download(ctx, url)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	name := fmt.Sprintf("gophagenda-export-%s.json", a.clock.Now().UTC().Format("20060102T150405Z"))
	return filex.WritePrivate(dir, name, data)
}

func (a *AuthService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
