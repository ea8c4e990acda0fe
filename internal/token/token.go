// Package token implements the stateless session token: a small JSON
// payload cleartext-signed by the subject's own OpenPGP key and carried in
// an HTTP cookie. The relay authenticates a request by verifying that
// signature against the public key stored at registration and comparing
// the expiry with its own clock.
package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/cryptox"
	"github.com/dmitrijs2005/gophagenda/internal/validate"
)

// Payload is the signed claim. It is not secret.
type Payload struct {
	UsernameHashed string    `json:"usernameHashed"`
	ValidUntil     time.Time `json:"validUntil"`
}

// Issue builds and signs a payload valid for validity from clock.Now().
func Issue(signer *crypto.Key, usernameHashed string, clock Clock, validity time.Duration) (string, Payload, error) {
	if validity <= 0 {
		return "", Payload{}, fmt.Errorf("%w: validity must be positive", common.ErrMalformedInput)
	}
	if err := validate.UsernameHashed(usernameHashed); err != nil {
		return "", Payload{}, err
	}

	p := Payload{
		UsernameHashed: usernameHashed,
		ValidUntil:     clock.Now().Add(validity).UTC().Truncate(time.Millisecond),
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", Payload{}, err
	}

	signed, err := cryptox.SignCleartext(string(raw), signer)
	if err != nil {
		return "", Payload{}, err
	}
	return signed, p, nil
}

// Encode turns a signed payload into a cookie value.
func Encode(signed string) string {
	return url.PathEscape(base64.StdEncoding.EncodeToString([]byte(signed)))
}

// Decode reverses Encode and shape-checks the result.
func Decode(value string) (string, error) {
	unescaped, err := url.PathUnescape(value)
	if err != nil {
		return "", fmt.Errorf("%w: cookie escaping", common.ErrMalformedInput)
	}
	raw, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		return "", fmt.Errorf("%w: cookie encoding", common.ErrMalformedInput)
	}
	signed := string(raw)
	if err := validate.SignedMessage(signed); err != nil {
		return "", err
	}
	return signed, nil
}

// Parse extracts the payload from a signed message without verifying the
// signature.
func Parse(signed string) (Payload, error) {
	text, err := cryptox.CleartextPayload(signed)
	if err != nil {
		return Payload{}, err
	}
	return parsePayload(text)
}

func parsePayload(text string) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(strings.NewReader(strings.TrimSpace(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("%w: payload: %v", common.ErrMalformedInput, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Payload{}, fmt.Errorf("%w: payload trailing data", common.ErrMalformedInput)
	}
	if err := validate.UsernameHashed(p.UsernameHashed); err != nil {
		return Payload{}, err
	}
	if p.ValidUntil.IsZero() {
		return Payload{}, fmt.Errorf("%w: payload expiry missing", common.ErrMalformedInput)
	}
	return p, nil
}
