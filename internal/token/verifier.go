package token

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
)

// PublicKeyLookup returns the armored public key registered for a user.
type PublicKeyLookup interface {
	PublicKeyArmored(ctx context.Context, usernameHashed string) (string, error)
}

// Verifier authenticates cookie values. It never trusts a time supplied by
// the client; expiry is compared against its own Clock.
type Verifier struct {
	keys  PublicKeyLookup
	clock Clock
}

func NewVerifier(keys PublicKeyLookup, clock Clock) *Verifier {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Verifier{keys: keys, clock: clock}
}

// Verify decodes a cookie value and checks it. Errors:
//   - common.ErrMalformedInput: not a well-formed token
//   - common.ErrorNotFound: no key registered for the claimed user
//   - common.ErrSignatureInvalid: signature does not match the stored key
//   - common.ErrExpired: signature is fine but ValidUntil has passed
func (v *Verifier) Verify(ctx context.Context, cookieValue string) (Payload, error) {
	signed, err := Decode(cookieValue)
	if err != nil {
		return Payload{}, err
	}
	return v.VerifySigned(ctx, signed)
}

// VerifySigned checks an already decoded signed payload.
func (v *Verifier) VerifySigned(ctx context.Context, signed string) (Payload, error) {
	claimed, err := Parse(signed)
	if err != nil {
		return Payload{}, err
	}

	pub, err := v.keys.PublicKeyArmored(ctx, claimed.UsernameHashed)
	if err != nil {
		return Payload{}, fmt.Errorf("public key lookup: %w", err)
	}

	text, err := cryptox.VerifyCleartext(signed, pub)
	if err != nil {
		return Payload{}, err
	}
	p, err := parsePayload(text)
	if err != nil || p.UsernameHashed != claimed.UsernameHashed || !p.ValidUntil.Equal(claimed.ValidUntil) {
		return Payload{}, common.ErrSignatureInvalid
	}

	if !v.clock.Now().Before(p.ValidUntil) {
		return Payload{}, common.ErrExpired
	}
	return p, nil
}
