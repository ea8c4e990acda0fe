package cryptox

import (
	"fmt"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
	"github.com/ProtonMail/gopenpgp/v2/helper"
	"github.com/dmitrijs2005/gophagenda/internal/common"
	"github.com/dmitrijs2005/gophagenda/internal/validate"
)

// verifyTime 0 disables signature time checks; validity windows are the
// token layer's job, not the codec's.
const verifyTime = 0

// SealAsymmetric encrypts plaintext to the recipient public key and signs it
// with signer. The signature covers the plaintext, so it can only be checked
// after decryption.
func SealAsymmetric(plaintext, recipientPublicKeyArmored string, signer *crypto.Key) (string, error) {
	recipient, err := publicKeyRing(recipientPublicKeyArmored)
	if err != nil {
		return "", err
	}
	signKR, err := privateKeyRing(signer)
	if err != nil {
		return "", err
	}

	msg, err := recipient.Encrypt(crypto.NewPlainMessage([]byte(plaintext)), signKR)
	if err != nil {
		return "", fmt.Errorf("seal: %w", err)
	}
	return msg.GetArmored()
}

// OpenAsymmetric decrypts an envelope with the recipient private key. When
// signerPublicKeyArmored is not empty the embedded signature must verify
// against it, otherwise the plaintext is withheld and
// common.ErrSignatureInvalid is returned.
func OpenAsymmetric(envelope string, recipient *crypto.Key, signerPublicKeyArmored string) (string, error) {
	msg, err := parseMessage(envelope)
	if err != nil {
		return "", err
	}
	recipientKR, err := privateKeyRing(recipient)
	if err != nil {
		return "", err
	}

	var verifier *crypto.KeyRing
	if signerPublicKeyArmored != "" {
		if verifier, err = publicKeyRing(signerPublicKeyArmored); err != nil {
			return "", err
		}
	}

	plain, err := recipientKR.Decrypt(msg, nil, verifyTime)
	if err != nil {
		return "", common.ErrDecryption
	}
	if verifier == nil {
		return string(plain.GetBinary()), nil
	}

	// Decryption already succeeded, so a failure here is provenance only.
	verified, err := recipientKR.Decrypt(msg, verifier, verifyTime)
	if err != nil {
		return "", common.ErrSignatureInvalid
	}
	return string(verified.GetBinary()), nil
}

// SealSymmetric encrypts plaintext so that it opens with either the
// recipient private key or the shared password, and signs it with signer.
// Events use it: the password is the capability handed to invitees, the
// owner key is a fallback for the author.
func SealSymmetric(plaintext, recipientPublicKeyArmored, password string, signer *crypto.Key) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrMalformedInput)
	}
	recipient, err := publicKeyRing(recipientPublicKeyArmored)
	if err != nil {
		return "", err
	}
	signKR, err := privateKeyRing(signer)
	if err != nil {
		return "", err
	}

	sk, err := crypto.GenerateSessionKey()
	if err != nil {
		return "", fmt.Errorf("session key: %w", err)
	}
	defer sk.Clear()

	data, err := sk.EncryptAndSign(crypto.NewPlainMessage([]byte(plaintext)), signKR)
	if err != nil {
		return "", fmt.Errorf("seal: %w", err)
	}
	keyPacket, err := recipient.EncryptSessionKey(sk)
	if err != nil {
		return "", fmt.Errorf("seal: %w", err)
	}
	passwordPacket, err := crypto.EncryptSessionKeyWithPassword(sk, []byte(password))
	if err != nil {
		return "", fmt.Errorf("seal: %w", err)
	}

	keyPackets := append(keyPacket, passwordPacket...)
	return crypto.NewPGPSplitMessage(keyPackets, data).GetPGPMessage().GetArmored()
}

// OpenSymmetric decrypts a symmetric envelope with the shared password. The
// password is the capability, so no signer is checked.
func OpenSymmetric(envelope, password string) (string, error) {
	return openSymmetric(envelope, password, nil)
}

// OpenSymmetricVerified is OpenSymmetric plus a provenance check against the
// author's public key.
func OpenSymmetricVerified(envelope, password, signerPublicKeyArmored string) (string, error) {
	verifier, err := publicKeyRing(signerPublicKeyArmored)
	if err != nil {
		return "", err
	}
	return openSymmetric(envelope, password, verifier)
}

func openSymmetric(envelope, password string, verifier *crypto.KeyRing) (string, error) {
	msg, err := parseMessage(envelope)
	if err != nil {
		return "", err
	}
	split, err := msg.SplitMessage()
	if err != nil {
		return "", fmt.Errorf("%w: envelope", common.ErrMalformedInput)
	}

	sk, err := crypto.DecryptSessionKeyWithPassword(split.GetBinaryKeyPacket(), []byte(password))
	if err != nil {
		return "", common.ErrDecryption
	}
	defer sk.Clear()

	plain, err := sk.Decrypt(split.GetBinaryDataPacket())
	if err != nil {
		return "", common.ErrDecryption
	}
	if verifier == nil {
		return string(plain.GetBinary()), nil
	}

	verified, err := sk.DecryptAndVerify(split.GetBinaryDataPacket(), verifier, verifyTime)
	if err != nil {
		return "", common.ErrSignatureInvalid
	}
	return string(verified.GetBinary()), nil
}

// SignCleartext produces an armored cleartext-signed message. The payload
// stays readable; only its integrity is protected.
func SignCleartext(text string, signer *crypto.Key) (string, error) {
	kr, err := privateKeyRing(signer)
	if err != nil {
		return "", err
	}
	signed, err := helper.SignCleartextMessage(kr, text)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return signed, nil
}

// VerifyCleartext checks a cleartext signature against publicKeyArmored and
// returns the signed text.
func VerifyCleartext(signed, publicKeyArmored string) (string, error) {
	if err := validate.SignedMessage(signed); err != nil {
		return "", err
	}
	kr, err := publicKeyRing(publicKeyArmored)
	if err != nil {
		return "", err
	}
	text, err := helper.VerifyCleartextMessage(kr, signed, verifyTime)
	if err != nil {
		return "", common.ErrSignatureInvalid
	}
	return text, nil
}

// CleartextPayload extracts the signed text without verifying it. Callers
// use it to learn whose key to verify against; the result must not be
// trusted until VerifyCleartext succeeds.
func CleartextPayload(signed string) (string, error) {
	if err := validate.SignedMessage(signed); err != nil {
		return "", err
	}
	msg, err := crypto.NewClearTextMessageFromArmored(signed)
	if err != nil {
		return "", fmt.Errorf("%w: signed message", common.ErrMalformedInput)
	}
	return msg.GetString(), nil
}

func parseMessage(envelope string) (*crypto.PGPMessage, error) {
	if err := validate.Message(envelope); err != nil {
		return nil, err
	}
	msg, err := crypto.NewPGPMessageFromArmored(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: envelope", common.ErrMalformedInput)
	}
	return msg, nil
}
