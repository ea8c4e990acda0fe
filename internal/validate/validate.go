// Package validate holds the shape checks applied to every identifier and
// armored block before it reaches a cryptographic parser or the database.
package validate

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophagenda/internal/common"
)

var (
	hashedRe = regexp.MustCompile(`^[0-9a-f]{64}$`)
	uuidV4Re = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	privateKeyRe    = armoredBlock("PGP PRIVATE KEY BLOCK")
	publicKeyRe     = armoredBlock("PGP PUBLIC KEY BLOCK")
	messageRe       = armoredBlock("PGP MESSAGE")
	signedMessageRe = regexp.MustCompile(`^-----BEGIN PGP SIGNED MESSAGE-----\r?\n(.*\r?\n)+-----BEGIN PGP SIGNATURE-----\r?\n(.*\r?\n)+-----END PGP SIGNATURE-----(\r?\n)?$`)

	usernameRe = regexp.MustCompile(`^\w{3,32}$`)
	digitRe    = regexp.MustCompile(`[0-9]`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	specialRe  = regexp.MustCompile(`[#$%&@^~.,*+!?=]`)
)

func armoredBlock(kind string) *regexp.Regexp {
	q := regexp.QuoteMeta(kind)
	return regexp.MustCompile(`^-----BEGIN ` + q + `-----\r?\n(.*\r?\n)+-----END ` + q + `-----(\r?\n)?$`)
}

func check(ok bool, what string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrMalformedInput, what)
}

// UsernameHashed checks a derived username identifier.
func UsernameHashed(s string) error { return check(hashedRe.MatchString(s), "username hash") }

// PasswordHashed checks a derived password identifier.
func PasswordHashed(s string) error { return check(hashedRe.MatchString(s), "password hash") }

// EventID checks an RFC-4122 version 4 UUID.
func EventID(s string) error { return check(uuidV4Re.MatchString(s), "event id") }

func PrivateKeyArmored(s string) error {
	return check(privateKeyRe.MatchString(s), "armored private key")
}

func PublicKeyArmored(s string) error {
	return check(publicKeyRe.MatchString(s), "armored public key")
}

func Message(s string) error { return check(messageRe.MatchString(s), "armored message") }

func SignedMessage(s string) error {
	return check(signedMessageRe.MatchString(s), "armored signed message")
}

// Username enforces the account name policy: 3 to 32 word characters.
func Username(s string) error {
	return check(usernameRe.MatchString(s), "username must be 3-32 letters, digits or underscores")
}

// Password enforces the account password policy.
func Password(s string) error {
	n := utf8.RuneCountInString(s)
	switch {
	case n < 8 || n > 32:
		return check(false, "password must be 8-32 characters")
	case !digitRe.MatchString(s):
		return check(false, "password needs a digit")
	case !upperRe.MatchString(s):
		return check(false, "password needs an uppercase letter")
	case !specialRe.MatchString(s):
		return check(false, "password needs one of #$%&@^~.,*+!?=")
	}
	return nil
}
