// Package invitation implements the invitation exchange: contact
// introductions and event capabilities sealed to the receiver and signed by
// the sender, a best-effort batch receiver, and the request/response turn.
package invitation

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
	"github.com/dmitrijs2005/gophagenda/internal/documents"
	"golang.org/x/sync/errgroup"
)

// NewContact introduces sender (username and public key) to the receiver.
func NewContact(username, publicKeyArmored string) *documents.Invitation {
	return &documents.Invitation{
		Type:             documents.InvitationContact,
		Username:         username,
		PublicKeyArmored: publicKeyArmored,
	}
}

// NewEventInvite hands access to the receiver along with the introduction.
func NewEventInvite(username, publicKeyArmored string, access documents.EventAccess) *documents.Invitation {
	return &documents.Invitation{
		Type:             documents.InvitationEvent,
		Username:         username,
		PublicKeyArmored: publicKeyArmored,
		EventAccess:      &access,
	}
}

// Create seals inv to the receiver. Inviting yourself is a policy error and
// is rejected before any envelope is built.
func Create(inv *documents.Invitation, senderHashed, receiverHashed, receiverPublicKeyArmored string, signer *crypto.Key) (string, error) {
	if senderHashed == receiverHashed {
		return "", common.ErrSelfInvitation
	}
	if signer != nil {
		if fp, err := cryptox.Fingerprint(receiverPublicKeyArmored); err == nil && fp == signer.GetFingerprint() {
			return "", common.ErrSelfInvitation
		}
	}
	if err := inv.Validate(); err != nil {
		return "", err
	}

	text, err := inv.Encode()
	if err != nil {
		return "", fmt.Errorf("encode invitation: %w", err)
	}
	return cryptox.SealAsymmetric(text, receiverPublicKeyArmored, signer)
}

// Respond answers a received request with resp, sealed back to the
// original sender. It returns the sender's identifier, which addresses the
// stored record, and the response envelope.
func Respond(request, resp *documents.Invitation, responderHashed string, signer *crypto.Key) (string, string, error) {
	senderHashed := cryptox.DeriveUsernameID(request.Username)
	env, err := Create(resp, responderHashed, senderHashed, request.PublicKeyArmored, signer)
	if err != nil {
		return "", "", err
	}
	return senderHashed, env, nil
}

// SenderCheck lets the caller vet a decrypted invitation further, for
// example against the key the relay has registered for its username.
type SenderCheck func(ctx context.Context, inv *documents.Invitation) error

type options struct {
	onDropped   func(int)
	check       SenderCheck
	concurrency int
}

type Option func(*options)

// WithDropObserver reports how many envelopes were discarded. It is called
// once per Receive, also when nothing was dropped.
func WithDropObserver(fn func(dropped int)) Option {
	return func(o *options) { o.onDropped = fn }
}

// WithSenderCheck adds a check run after the signature verified.
func WithSenderCheck(check SenderCheck) Option {
	return func(o *options) { o.check = check }
}

// WithConcurrency bounds the number of envelopes opened at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// Receive opens every envelope with recipient and returns the invitations
// that decrypted, parsed, and verified against the public key they carry,
// in input order. Failures are dropped, not reported per item, so one bad
// envelope never hides the good ones.
func Receive(ctx context.Context, envelopes []string, recipient *crypto.Key, opts ...Option) []documents.Invitation {
	o := options{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	slots := make([]*documents.Invitation, len(envelopes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, env := range envelopes {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = openOne(ctx, env, recipient, o.check)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]documents.Invitation, 0, len(envelopes))
	for _, inv := range slots {
		if inv != nil {
			out = append(out, *inv)
		}
	}
	if o.onDropped != nil {
		o.onDropped(len(envelopes) - len(out))
	}
	return out
}

func openOne(ctx context.Context, env string, recipient *crypto.Key, check SenderCheck) *documents.Invitation {
	text, err := cryptox.OpenAsymmetric(env, recipient, "")
	if err != nil {
		return nil
	}
	inv, err := documents.DecodeInvitation(text)
	if err != nil {
		return nil
	}
	// The embedded key is only trusted once it verifies the very envelope
	// that carried it.
	if _, err := cryptox.OpenAsymmetric(env, recipient, inv.PublicKeyArmored); err != nil {
		return nil
	}
	if check != nil {
		if err := check(ctx, inv); err != nil {
			return nil
		}
	}
	return inv
}
